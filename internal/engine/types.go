package engine

import (
	"context"
	"errors"
	"time"

	"github.com/dgnsrekt/chainsignal/internal/analytics"
	"github.com/dgnsrekt/chainsignal/internal/chain"
	"github.com/dgnsrekt/chainsignal/internal/indicators"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

var (
	ErrInvalidPrice = errors.New("current price must be positive")
	ErrNoStorage    = errors.New("no storage gateway configured")
)

// StorageGateway supplies the most recent per-source strike sets of a chain.
// An empty expiry selects the nearest one available.
type StorageGateway interface {
	LatestStrikes(ctx context.Context, ticker, expiry string) (*chain.SourceSets, error)
}

// PriceFeedGateway supplies an optional spot and spread.
type PriceFeedGateway interface {
	Quote(ctx context.Context, ticker string) (*chain.Quote, error)
}

// PriceSeriesGateway supplies up to n chronological bars.
type PriceSeriesGateway interface {
	Bars(ctx context.Context, ticker string, n int) ([]indicators.Bar, error)
}

// Request is one analysis input.
type Request struct {
	Ticker       string               `json:"ticker,omitempty"`
	CurrentPrice float64              `json:"current_price"`
	OI           []chain.StrikeRecord `json:"oi,omitempty"`
	Volume       []chain.StrikeRecord `json:"volume,omitempty"`
	OIChange     []chain.StrikeRecord `json:"oi_change,omitempty"`
	Bars         []indicators.Bar     `json:"bars,omitempty"`
	Spread       *float64             `json:"spread,omitempty"`
	// SyntheticSeries marks Bars as generated rather than observed.
	SyntheticSeries bool `json:"synthetic_series,omitempty"`
}

// Config bundles the thresholds of every stage plus engine behaviour.
type Config struct {
	Analytics  analytics.Config  `mapstructure:"analytics"`
	Indicators indicators.Config `mapstructure:"indicators"`
	Scoring    scoring.Config    `mapstructure:"scoring"`

	BarsLimit      int  `mapstructure:"bars_limit"`
	AllowSynthetic bool `mapstructure:"allow_synthetic"`
	SyntheticBars  int  `mapstructure:"synthetic_bars"`
}

func DefaultConfig() Config {
	return Config{
		Analytics:      analytics.DefaultConfig(),
		Indicators:     indicators.DefaultConfig(),
		Scoring:        scoring.DefaultConfig(),
		BarsLimit:      250,
		AllowSynthetic: true,
		SyntheticBars:  250,
	}
}

// Analysis is the full result of one request.
type Analysis struct {
	ID              string                          `json:"id,omitempty"`
	Ticker          string                          `json:"ticker,omitempty"`
	GeneratedAt     time.Time                       `json:"generated_at"`
	Snapshot        chain.MarketSnapshot            `json:"snapshot"`
	Walls           analytics.LiquidityWalls        `json:"walls"`
	PCR             analytics.PCRResult             `json:"pcr"`
	MaxPain         analytics.MaxPainResult         `json:"max_pain"`
	Volume          analytics.VolumeAnalysis        `json:"volume"`
	Technical       *indicators.TechnicalIndicators `json:"technical,omitempty"`
	SyntheticSeries bool                            `json:"synthetic_series"`
	Spread          *float64                        `json:"spread"`
	Signal          scoring.TradingSignal           `json:"signal"`
	Warnings        []string                        `json:"warnings"`
}
