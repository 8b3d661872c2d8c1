// Package indicators computes technical indicators over an OHLC bar series.
// It is independent of option data; the engine merges its output into the
// warning layer of an analysis.
package indicators

import (
	"time"

	"github.com/markcheno/go-talib"
)

// Bar is one OHLC bar. Series are chronological, oldest first.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

type RSISignal string

const (
	Overbought RSISignal = "OVERBOUGHT"
	Oversold   RSISignal = "OVERSOLD"
	RSINeutral RSISignal = "NEUTRAL"
)

type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendBearish  Trend = "BEARISH"
	TrendSideways Trend = "SIDEWAYS"
)

type Volatility string

const (
	VolatilityHigh   Volatility = "HIGH"
	VolatilityMedium Volatility = "MEDIUM"
	VolatilityLow    Volatility = "LOW"
)

type TrendStrengthLabel string

const (
	StrongUp   TrendStrengthLabel = "STRONG_UP"
	Up         TrendStrengthLabel = "UP"
	Sideways   TrendStrengthLabel = "SIDEWAYS"
	Down       TrendStrengthLabel = "DOWN"
	StrongDown TrendStrengthLabel = "STRONG_DOWN"
)

// TrendStrength is the 0-5 alignment composite and its label.
type TrendStrength struct {
	Label    TrendStrengthLabel `json:"label"`
	Strength int                `json:"strength"`
	Points   int                `json:"points"`
}

// TechnicalIndicators is the result of Compute.
type TechnicalIndicators struct {
	CurrentPrice     float64       `json:"current_price"`
	Bars             int           `json:"bars"`
	RSI              float64       `json:"rsi"`
	RSISignal        RSISignal     `json:"rsi_signal"`
	MA20             float64       `json:"ma20"`
	MA50             float64       `json:"ma50"`
	MA200            float64       `json:"ma200"`
	ATR              float64       `json:"atr"`
	ATRPercent       float64       `json:"atr_percent"`
	Volatility       Volatility    `json:"volatility"`
	SuggestedSL      float64       `json:"suggested_sl"`
	SuggestedTP1     float64       `json:"suggested_tp1"`
	SuggestedTP2     float64       `json:"suggested_tp2"`
	SupportLevels    []float64     `json:"support_levels"`
	ResistanceLevels []float64     `json:"resistance_levels"`
	SyntheticLevels  bool          `json:"synthetic_levels"`
	Trend            Trend         `json:"trend"`
	TrendStrength    TrendStrength `json:"trend_strength"`
}

// Compute derives all indicators from bars. The current price is the last close.
// An empty series yields neutral defaults.
func Compute(bars []Bar, cfg Config) TechnicalIndicators {
	ti := TechnicalIndicators{
		Bars:             len(bars),
		RSI:              50,
		RSISignal:        RSINeutral,
		Volatility:       VolatilityLow,
		SupportLevels:    []float64{},
		ResistanceLevels: []float64{},
		Trend:            TrendSideways,
		TrendStrength:    TrendStrength{Label: Sideways, Strength: 50},
	}
	if len(bars) == 0 {
		return ti
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	price := closes[n-1]
	ti.CurrentPrice = price

	ti.RSI = rsi(closes, cfg.RSIPeriod)
	switch {
	case ti.RSI >= cfg.RSIOverbought:
		ti.RSISignal = Overbought
	case ti.RSI <= cfg.RSIOversold:
		ti.RSISignal = Oversold
	}

	ti.MA20 = movingAverage(closes, cfg.FastMAPeriod, talib.Ema)
	ti.MA50 = movingAverage(closes, cfg.SlowMAPeriod, talib.Ema)
	ti.MA200 = movingAverage(closes, cfg.LongMAPeriod, talib.Sma)
	ti.Trend = classifyTrend(price, ti.MA20, ti.MA50, ti.MA200)
	ti.TrendStrength = trendStrength(price, ti.MA20, ti.MA50, ti.MA200)

	ti.ATR = atr(highs, lows, closes, cfg.ATRPeriod)
	if price > 0 {
		ti.ATRPercent = ti.ATR / price * 100
	}
	switch {
	case ti.ATRPercent > cfg.HighVolatilityPercent:
		ti.Volatility = VolatilityHigh
	case ti.ATRPercent > cfg.MediumVolatilityPercent:
		ti.Volatility = VolatilityMedium
	}
	ti.SuggestedSL = cfg.StopLossATR * ti.ATR
	ti.SuggestedTP1 = cfg.TakeProfit1ATR * ti.ATR
	ti.SuggestedTP2 = cfg.TakeProfit2ATR * ti.ATR

	ti.SupportLevels, ti.ResistanceLevels, ti.SyntheticLevels = supportResistance(highs, lows, price, cfg)
	return ti
}

// rsi is Wilder's RSI; 50 for a short or flat series, where the ratio is undefined.
func rsi(closes []float64, period int) float64 {
	if period < 2 || len(closes) < period+1 || flat(closes) {
		return 50
	}
	return last(talib.Rsi(closes, period))
}

// movingAverage falls back to the mean of all closes when the series is
// shorter than the period.
func movingAverage(closes []float64, period int, fn func([]float64, int) []float64) float64 {
	if period < 2 || len(closes) < period {
		return mean(closes)
	}
	return last(fn(closes, period))
}

// atr is Wilder's ATR. Short series average whatever true ranges exist.
func atr(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period >= 2 && n >= period+1 {
		return last(talib.Atr(highs, lows, closes, period))
	}
	if n == 1 {
		return highs[0] - lows[0]
	}
	var sum float64
	for i := 1; i < n; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	return sum / float64(n-1)
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := abs(high - prevClose); v > tr {
		tr = v
	}
	if v := abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}

func classifyTrend(price, ma20, ma50, ma200 float64) Trend {
	switch {
	case price > ma20 && ma20 > ma50 && ma50 > ma200:
		return TrendBullish
	case price < ma20 && ma20 < ma50 && ma50 < ma200:
		return TrendBearish
	default:
		return TrendSideways
	}
}

// trendStrength awards a point for price above each average and a point for
// each aligned pair of averages.
func trendStrength(price, ma20, ma50, ma200 float64) TrendStrength {
	points := 0
	for _, ma := range []float64{ma20, ma50, ma200} {
		if price > ma {
			points++
		}
	}
	if ma20 > ma50 {
		points++
	}
	if ma50 > ma200 {
		points++
	}

	ts := TrendStrength{Points: points}
	switch {
	case points == 5:
		ts.Label, ts.Strength = StrongUp, 90
	case points == 4:
		ts.Label, ts.Strength = Up, 70
	case points >= 2:
		ts.Label, ts.Strength = Sideways, 50
	case points == 1:
		ts.Label, ts.Strength = Down, 70
	default:
		ts.Label, ts.Strength = StrongDown, 90
	}
	return ts
}

func flat(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

func last(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
