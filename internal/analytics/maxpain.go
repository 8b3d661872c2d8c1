package analytics

import (
	"sort"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

// StrikePain is the aggregate option buyer payout if the chain settles at Strike.
type StrikePain struct {
	Strike    float64 `json:"strike"`
	TotalPain float64 `json:"total_pain"`
}

// MaxPainResult holds the max pain strike and its pull on price.
type MaxPainResult struct {
	MaxPainStrike     float64      `json:"max_pain_strike"`
	DistanceFromPrice float64      `json:"distance_from_price"`
	DistancePercent   float64      `json:"distance_percent"`
	PainByStrike      []StrikePain `json:"pain_by_strike"`
	Signal            Bias         `json:"signal"`
}

// CalculateMaxPain evaluates every unique strike as a settlement price and
// returns the one where buyers collect the least, i.e. writers keep the most.
// Candidates are scanned in ascending order and only a strictly smaller payout
// replaces the current pick, so ties go to the lowest strike.
func CalculateMaxPain(strikes []chain.StrikeRecord, currentPrice float64, cfg Config) MaxPainResult {
	res := MaxPainResult{
		PainByStrike: []StrikePain{},
		Signal:       Neutral,
	}
	if len(strikes) == 0 {
		return res
	}

	candidates := uniqueStrikes(strikes)
	res.PainByStrike = make([]StrikePain, 0, len(candidates))

	best := -1
	for _, settle := range candidates {
		pain := settlementPayout(strikes, settle)
		res.PainByStrike = append(res.PainByStrike, StrikePain{Strike: settle, TotalPain: pain})
		if best < 0 || pain < res.PainByStrike[best].TotalPain {
			best = len(res.PainByStrike) - 1
		}
	}

	res.MaxPainStrike = res.PainByStrike[best].Strike
	res.DistanceFromPrice = res.MaxPainStrike - currentPrice
	if currentPrice > 0 {
		res.DistancePercent = res.DistanceFromPrice / currentPrice * 100
	}

	switch {
	case res.DistancePercent > cfg.MaxPainNeutralPercent:
		res.Signal = Bullish
	case res.DistancePercent < -cfg.MaxPainNeutralPercent:
		res.Signal = Bearish
	}
	return res
}

// settlementPayout is the intrinsic value owed to all option holders at settle.
func settlementPayout(strikes []chain.StrikeRecord, settle float64) float64 {
	var total float64
	for _, s := range strikes {
		k := s.StrikePrice
		if settle < k {
			total += s.PutOI * (k - settle)
		}
		if settle > k {
			total += s.CallOI * (settle - k)
		}
	}
	return total
}

func uniqueStrikes(strikes []chain.StrikeRecord) []float64 {
	seen := make(map[float64]bool, len(strikes))
	out := make([]float64, 0, len(strikes))
	for _, s := range strikes {
		if seen[s.StrikePrice] {
			continue
		}
		seen[s.StrikePrice] = true
		out = append(out, s.StrikePrice)
	}
	sort.Float64s(out)
	return out
}
