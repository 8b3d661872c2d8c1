package scoring

// Config holds the composite scorer's weights and thresholds.
type Config struct {
	Base float64 `mapstructure:"base"`

	PCRStrongBullishBelow float64 `mapstructure:"pcr_strong_bullish_below"`
	PCRBullishBelow       float64 `mapstructure:"pcr_bullish_below"`
	PCRStrongBearishAbove float64 `mapstructure:"pcr_strong_bearish_above"`
	PCRBearishAbove       float64 `mapstructure:"pcr_bearish_above"`
	PCRStrongDelta        float64 `mapstructure:"pcr_strong_delta"`
	PCRDelta              float64 `mapstructure:"pcr_delta"`

	VWAPDelta float64 `mapstructure:"vwap_delta"`
	FlowDelta float64 `mapstructure:"flow_delta"`

	// WallProximity is the fraction of the support-resistance band that
	// counts as "at" a wall.
	WallProximity float64 `mapstructure:"wall_proximity"`
	WallDelta     float64 `mapstructure:"wall_delta"`
	BreakoutDelta float64 `mapstructure:"breakout_delta"`

	MaxPainPercent float64 `mapstructure:"max_pain_percent"`
	MaxPainDelta   float64 `mapstructure:"max_pain_delta"`

	VolumeMaxDelta float64 `mapstructure:"volume_max_delta"`

	StrongBuyAt  float64 `mapstructure:"strong_buy_at"`
	BuyAt        float64 `mapstructure:"buy_at"`
	MildBuyAt    float64 `mapstructure:"mild_buy_at"`
	StrongSellAt float64 `mapstructure:"strong_sell_at"`
	SellAt       float64 `mapstructure:"sell_at"`
	MildSellAt   float64 `mapstructure:"mild_sell_at"`
}

// DefaultConfig returns the reference weights. The neutral band is 46-54.
func DefaultConfig() Config {
	return Config{
		Base:                  50,
		PCRStrongBullishBelow: 0.6,
		PCRBullishBelow:       0.8,
		PCRStrongBearishAbove: 1.2,
		PCRBearishAbove:       1.0,
		PCRStrongDelta:        10,
		PCRDelta:              5,
		VWAPDelta:             15,
		FlowDelta:             15,
		WallProximity:         0.2,
		WallDelta:             20,
		BreakoutDelta:         25,
		MaxPainPercent:        2,
		MaxPainDelta:          10,
		VolumeMaxDelta:        10,
		StrongBuyAt:           75,
		BuyAt:                 60,
		MildBuyAt:             55,
		StrongSellAt:          25,
		SellAt:                40,
		MildSellAt:            45,
	}
}
