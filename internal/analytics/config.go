// Package analytics derives liquidity walls, put/call ratios, max pain and
// volume anomalies from a merged strike set. Every function is pure.
package analytics

// Bias is a directional read of one analysis.
type Bias string

const (
	Bullish Bias = "BULLISH"
	Bearish Bias = "BEARISH"
	Neutral Bias = "NEUTRAL"
)

// Config holds the thresholds used by the strike analyses.
type Config struct {
	// ATMBandPercent is the half-width of the at-the-money band around price.
	ATMBandPercent float64 `mapstructure:"atm_band_percent"`
	// WallLevels is the number of ranked support and resistance levels.
	WallLevels int `mapstructure:"wall_levels"`

	PCRBullishBelow float64 `mapstructure:"pcr_bullish_below"`
	PCRBearishAbove float64 `mapstructure:"pcr_bearish_above"`
	PCROIWeight     float64 `mapstructure:"pcr_oi_weight"`
	PCRVolumeWeight float64 `mapstructure:"pcr_volume_weight"`

	// MaxPainNeutralPercent is the distance band inside which max pain exerts no pull.
	MaxPainNeutralPercent float64 `mapstructure:"max_pain_neutral_percent"`

	SpikeMultiplier      float64 `mapstructure:"spike_multiplier"`
	MaxSpikes            int     `mapstructure:"max_spikes"`
	NearPricePercent     float64 `mapstructure:"near_price_percent"`
	VolumeBullishBelow   float64 `mapstructure:"volume_bullish_below"`
	VolumeBearishAbove   float64 `mapstructure:"volume_bearish_above"`
	SpikeDominance       float64 `mapstructure:"spike_dominance"`
	ATMConcentrationHigh float64 `mapstructure:"atm_concentration_high"`
	ATMConcentrationBump float64 `mapstructure:"atm_concentration_bump"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		ATMBandPercent:        2,
		WallLevels:            3,
		PCRBullishBelow:       0.7,
		PCRBearishAbove:       1.0,
		PCROIWeight:           0.6,
		PCRVolumeWeight:       0.4,
		MaxPainNeutralPercent: 1,
		SpikeMultiplier:       2,
		MaxSpikes:             10,
		NearPricePercent:      2,
		VolumeBullishBelow:    0.7,
		VolumeBearishAbove:    1.2,
		SpikeDominance:        1.5,
		ATMConcentrationHigh:  30,
		ATMConcentrationBump:  10,
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// withinBand reports whether strike lies within pct percent of price.
// A non-positive price has no band.
func withinBand(strike, price, pct float64) bool {
	if price <= 0 {
		return false
	}
	diff := strike - price
	if diff < 0 {
		diff = -diff
	}
	return diff <= price*pct/100
}
