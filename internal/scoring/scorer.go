// Package scoring combines the strike analyses into one 0-100 score and a
// BUY/SELL/NEUTRAL signal with a factor breakdown.
package scoring

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/chainsignal/internal/analytics"
	"github.com/dgnsrekt/chainsignal/internal/chain"
)

type Signal string

const (
	Buy     Signal = "BUY"
	Sell    Signal = "SELL"
	Neutral Signal = "NEUTRAL"
)

type Strength string

const (
	Strong Strength = "strong"
	Normal Strength = "normal"
	Mild   Strength = "mild"
)

type Sentiment string

const (
	Bullish Sentiment = "Bullish"
	Bearish Sentiment = "Bearish"
	Sideway Sentiment = "Sideway"
)

// Factor rule names used in FactorScores and Breakdown.
const (
	RuleBase    = "base"
	RulePCR     = "pcr"
	RuleVWAP    = "vwap"
	RuleFlow    = "flow"
	RuleWall    = "wall"
	RuleMaxPain = "max_pain"
	RuleVolume  = "volume"
	RuleClamp   = "clamp"
)

// Input is everything the scorer reads. All fields are plain values.
type Input struct {
	Snapshot chain.MarketSnapshot
	Walls    analytics.LiquidityWalls
	PCR      analytics.PCRResult
	MaxPain  analytics.MaxPainResult
	Volume   analytics.VolumeAnalysis
}

type FactorScores struct {
	PCR     float64 `json:"pcr"`
	VWAP    float64 `json:"vwap"`
	Wall    float64 `json:"wall"`
	MaxPain float64 `json:"max_pain"`
	Flow    float64 `json:"flow"`
	Volume  float64 `json:"volume"`
}

// BreakdownEntry is one applied rule, in evaluation order.
type BreakdownEntry struct {
	Rule   string  `json:"rule"`
	Delta  float64 `json:"delta"`
	Detail string  `json:"detail"`
}

type Factors struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

type KeyLevels struct {
	CurrentPrice float64 `json:"current_price"`
	VWAP         float64 `json:"vwap"`
	Support      float64 `json:"support"`
	Resistance   float64 `json:"resistance"`
	MaxPain      float64 `json:"max_pain"`
}

// TradingSignal is the scorer's output.
type TradingSignal struct {
	Signal         Signal                   `json:"signal"`
	Strength       Strength                 `json:"strength,omitempty"`
	Score          float64                  `json:"score"`
	Sentiment      Sentiment                `json:"sentiment"`
	Reason         string                   `json:"reason"`
	Summary        string                   `json:"summary"`
	Factors        Factors                  `json:"factors"`
	KeyLevels      KeyLevels                `json:"key_levels"`
	FactorScores   FactorScores             `json:"factor_scores"`
	VolumeAnalysis analytics.VolumeAnalysis `json:"volume_analysis"`
	Breakdown      []BreakdownEntry         `json:"breakdown"`
}

// Scorer applies a Config. It holds no other state and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

func (s *Scorer) Config() Config {
	return s.cfg
}

type factor struct {
	rule   string
	delta  float64
	detail string
}

// Score evaluates each factor independently, clamps it to its own range,
// sums onto the base and clamps the total to [0, 100]. The volume factor
// confirms or contradicts the direction of the other factors combined.
func (s *Scorer) Score(in Input) TradingSignal {
	cfg := s.cfg
	price := in.Snapshot.CurrentPrice

	factors := []factor{
		s.pcrFactor(in.PCR),
		s.vwapFactor(price, in.Snapshot.VWAP),
		s.flowFactor(in.Snapshot.Strikes),
		s.wallFactor(price, in.Walls),
		s.maxPainFactor(in.MaxPain),
	}

	preliminary := cfg.Base
	for _, f := range factors {
		preliminary += f.delta
	}
	factors = append(factors, s.volumeFactor(in.Volume, preliminary))

	sig := TradingSignal{
		Factors: Factors{Positive: []string{}, Negative: []string{}},
		KeyLevels: KeyLevels{
			CurrentPrice: price,
			VWAP:         in.Snapshot.VWAP,
			Support:      in.Walls.Support.Strike,
			Resistance:   in.Walls.Resistance.Strike,
			MaxPain:      in.MaxPain.MaxPainStrike,
		},
		VolumeAnalysis: in.Volume,
		Breakdown: []BreakdownEntry{
			{Rule: RuleBase, Delta: cfg.Base, Detail: fmt.Sprintf("neutral baseline %.0f", cfg.Base)},
		},
	}

	raw := cfg.Base
	for _, f := range factors {
		raw += f.delta
		sig.FactorScores.set(f.rule, f.delta)
		if f.delta == 0 {
			continue
		}
		sig.Breakdown = append(sig.Breakdown, BreakdownEntry{Rule: f.rule, Delta: f.delta, Detail: f.detail})
		if f.delta > 0 {
			sig.Factors.Positive = append(sig.Factors.Positive, f.detail)
		} else {
			sig.Factors.Negative = append(sig.Factors.Negative, f.detail)
		}
	}

	sig.Score = clamp(raw, 0, 100)
	if sig.Score != raw {
		sig.Breakdown = append(sig.Breakdown, BreakdownEntry{
			Rule:   RuleClamp,
			Delta:  sig.Score - raw,
			Detail: fmt.Sprintf("raw score %.1f clamped to %.0f", raw, sig.Score),
		})
	}

	sig.Signal, sig.Strength = s.Classify(sig.Score)
	sig.Sentiment = sentimentOf(sig.Signal)
	sig.Reason = reason(sig)
	sig.Summary = summarize(in, sig)
	return sig
}

// Classify maps a score to a signal, evaluated top-down.
func (s *Scorer) Classify(score float64) (Signal, Strength) {
	cfg := s.cfg
	switch {
	case score >= cfg.StrongBuyAt:
		return Buy, Strong
	case score >= cfg.BuyAt:
		return Buy, Normal
	case score >= cfg.MildBuyAt:
		return Buy, Mild
	case score <= cfg.StrongSellAt:
		return Sell, Strong
	case score <= cfg.SellAt:
		return Sell, Normal
	case score <= cfg.MildSellAt:
		return Sell, Mild
	default:
		return Neutral, ""
	}
}

func (s *Scorer) pcrFactor(pcr analytics.PCRResult) factor {
	cfg := s.cfg
	f := factor{rule: RulePCR}
	// Without call volume the ratio is a forced 0, not a bullish reading.
	if pcr.Totals.CallVolume <= 0 {
		return f
	}
	v := pcr.VolumePCR
	switch {
	case v < cfg.PCRStrongBullishBelow:
		f.delta = cfg.PCRStrongDelta
		f.detail = fmt.Sprintf("volume PCR %.2f below %.2f: heavy call buying", v, cfg.PCRStrongBullishBelow)
	case v < cfg.PCRBullishBelow:
		f.delta = cfg.PCRDelta
		f.detail = fmt.Sprintf("volume PCR %.2f below %.2f: call-leaning flow", v, cfg.PCRBullishBelow)
	case v > cfg.PCRStrongBearishAbove:
		f.delta = -cfg.PCRStrongDelta
		f.detail = fmt.Sprintf("volume PCR %.2f above %.2f: heavy put buying", v, cfg.PCRStrongBearishAbove)
	case v > cfg.PCRBearishAbove:
		f.delta = -cfg.PCRDelta
		f.detail = fmt.Sprintf("volume PCR %.2f above %.2f: put-leaning flow", v, cfg.PCRBearishAbove)
	}
	f.delta = clamp(f.delta, -cfg.PCRStrongDelta, cfg.PCRStrongDelta)
	return f
}

func (s *Scorer) vwapFactor(price, vwap float64) factor {
	f := factor{rule: RuleVWAP}
	if vwap <= 0 {
		return f
	}
	switch {
	case price > vwap:
		f.delta = s.cfg.VWAPDelta
		f.detail = fmt.Sprintf("price %.2f above strike VWAP %.2f", price, vwap)
	case price < vwap:
		f.delta = -s.cfg.VWAPDelta
		f.detail = fmt.Sprintf("price %.2f below strike VWAP %.2f", price, vwap)
	}
	return f
}

func (s *Scorer) flowFactor(strikes []chain.StrikeRecord) factor {
	f := factor{rule: RuleFlow}
	var calls, puts float64
	for _, st := range strikes {
		calls += st.CallOIChange
		puts += st.PutOIChange
	}
	switch {
	case calls > puts && calls > 0:
		f.delta = s.cfg.FlowDelta
		f.detail = fmt.Sprintf("call OI building faster than put OI (%+.0f vs %+.0f)", calls, puts)
	case puts > calls && puts > 0:
		f.delta = -s.cfg.FlowDelta
		f.detail = fmt.Sprintf("put OI building faster than call OI (%+.0f vs %+.0f)", puts, calls)
	}
	return f
}

// wallFactor scores price against the support and resistance walls. Beyond
// both walls is a breakout or breakdown; otherwise price within the proximity
// fraction of the band from either wall scores toward a bounce off it.
func (s *Scorer) wallFactor(price float64, walls analytics.LiquidityWalls) factor {
	cfg := s.cfg
	f := factor{rule: RuleWall}
	if walls.Support.Strength == 0 || walls.Resistance.Strength == 0 || price <= 0 {
		return f
	}
	sup, res := walls.Support.Strike, walls.Resistance.Strike

	switch {
	case price > res && price > sup:
		f.delta = cfg.BreakoutDelta
		f.detail = fmt.Sprintf("breakout above resistance wall %.0f", res)
		return f
	case price < sup && price < res:
		f.delta = -cfg.BreakoutDelta
		f.detail = fmt.Sprintf("breakdown below support wall %.0f", sup)
		return f
	}

	band := math.Abs(res - sup)
	if band == 0 {
		return f
	}
	near := cfg.WallProximity * band
	switch {
	case math.Abs(price-sup) <= near:
		f.delta = cfg.WallDelta
		f.detail = fmt.Sprintf("price holding near support wall %.0f", sup)
	case math.Abs(price-res) <= near:
		f.delta = -cfg.WallDelta
		f.detail = fmt.Sprintf("price pressing into resistance wall %.0f", res)
	}
	return f
}

func (s *Scorer) maxPainFactor(mp analytics.MaxPainResult) factor {
	cfg := s.cfg
	f := factor{rule: RuleMaxPain}
	switch {
	case mp.DistancePercent > cfg.MaxPainPercent:
		f.delta = cfg.MaxPainDelta
		f.detail = fmt.Sprintf("max pain %.0f is %.2f%% above price", mp.MaxPainStrike, mp.DistancePercent)
	case mp.DistancePercent < -cfg.MaxPainPercent:
		f.delta = -cfg.MaxPainDelta
		f.detail = fmt.Sprintf("max pain %.0f is %.2f%% below price", mp.MaxPainStrike, -mp.DistancePercent)
	}
	return f
}

func (s *Scorer) volumeFactor(va analytics.VolumeAnalysis, preliminary float64) factor {
	f := factor{rule: RuleVolume}
	bias := analytics.Neutral
	switch {
	case preliminary > s.cfg.Base:
		bias = analytics.Bullish
	case preliminary < s.cfg.Base:
		bias = analytics.Bearish
	}
	f.delta = clamp(analytics.VolumeConfirmation(va, bias), -s.cfg.VolumeMaxDelta, s.cfg.VolumeMaxDelta)
	switch {
	case f.delta > 0:
		f.detail = fmt.Sprintf("%s volume (%.0f%% confidence) confirms the move", lower(va.Signal), va.Confidence)
	case f.delta < 0:
		f.detail = fmt.Sprintf("%s volume (%.0f%% confidence) contradicts the move", lower(va.Signal), va.Confidence)
	}
	return f
}

func (fs *FactorScores) set(rule string, delta float64) {
	switch rule {
	case RulePCR:
		fs.PCR = delta
	case RuleVWAP:
		fs.VWAP = delta
	case RuleWall:
		fs.Wall = delta
	case RuleMaxPain:
		fs.MaxPain = delta
	case RuleFlow:
		fs.Flow = delta
	case RuleVolume:
		fs.Volume = delta
	}
}

func sentimentOf(sig Signal) Sentiment {
	switch sig {
	case Buy:
		return Bullish
	case Sell:
		return Bearish
	default:
		return Sideway
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
