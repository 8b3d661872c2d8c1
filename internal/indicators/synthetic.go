package indicators

import (
	"math"
	"math/rand"
	"time"
)

// SyntheticSeries generates n hourly bars of a seeded random walk that closes
// at price, ending at end.
//
// This is a stand-in for a missing price history, not market data. Analyses
// built on it are flagged synthetic by the engine.
func SyntheticSeries(price float64, n int, seed int64, end time.Time) []Bar {
	if n <= 0 || price <= 0 {
		return []Bar{}
	}
	rng := rand.New(rand.NewSource(seed))

	closes := make([]float64, n)
	closes[n-1] = price
	for i := n - 2; i >= 0; i-- {
		step := rng.NormFloat64() * 0.003
		closes[i] = closes[i+1] / (1 + step)
	}

	bars := make([]Bar, n)
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		wick := math.Abs(rng.NormFloat64()) * c * 0.002
		bars[i] = Bar{
			Timestamp: end.Add(-time.Duration(n-1-i) * time.Hour),
			Open:      open,
			High:      math.Max(open, c) + wick,
			Low:       math.Min(open, c) - wick,
			Close:     c,
			Volume:    math.Round(1000 + rng.Float64()*9000),
		}
	}
	return bars
}
