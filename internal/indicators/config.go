package indicators

// Config holds indicator periods and classification thresholds.
type Config struct {
	RSIPeriod     int     `mapstructure:"rsi_period"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	RSIOversold   float64 `mapstructure:"rsi_oversold"`

	FastMAPeriod int `mapstructure:"fast_ma_period"`
	SlowMAPeriod int `mapstructure:"slow_ma_period"`
	LongMAPeriod int `mapstructure:"long_ma_period"`

	ATRPeriod int `mapstructure:"atr_period"`
	// Volatility tiers as ATR percent of price.
	HighVolatilityPercent   float64 `mapstructure:"high_volatility_percent"`
	MediumVolatilityPercent float64 `mapstructure:"medium_volatility_percent"`

	StopLossATR    float64 `mapstructure:"stop_loss_atr"`
	TakeProfit1ATR float64 `mapstructure:"take_profit1_atr"`
	TakeProfit2ATR float64 `mapstructure:"take_profit2_atr"`

	// SwingWidth is the number of bars on each side a swing point must beat.
	SwingWidth       int     `mapstructure:"swing_width"`
	MinSwingPoints   int     `mapstructure:"min_swing_points"`
	SyntheticSpacing float64 `mapstructure:"synthetic_spacing"`
	Levels           int     `mapstructure:"levels"`
}

// DefaultConfig returns the standard periods: RSI(14), EMA20/50, SMA200, ATR(14).
func DefaultConfig() Config {
	return Config{
		RSIPeriod:               14,
		RSIOverbought:           70,
		RSIOversold:             30,
		FastMAPeriod:            20,
		SlowMAPeriod:            50,
		LongMAPeriod:            200,
		ATRPeriod:               14,
		HighVolatilityPercent:   1.5,
		MediumVolatilityPercent: 0.8,
		StopLossATR:             1.5,
		TakeProfit1ATR:          2,
		TakeProfit2ATR:          3,
		SwingWidth:              2,
		MinSwingPoints:          5,
		SyntheticSpacing:        15,
		Levels:                  3,
	}
}
