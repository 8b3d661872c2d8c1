package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/notify"
)

func validConfig() *Config {
	e := engine.DefaultConfig()
	return &Config{
		Data:       DataConfig{Loader: "memory"},
		Notify:     notify.DefaultConfig(),
		Stream:     StreamConfig{Enabled: true, Interval: 1},
		Scan:       ScanConfig{Workers: 1},
		Tickers:    []string{"SPX", "GC"},
		Logging:    LoggingConfig{Level: "info"},
		Analytics:  e.Analytics,
		Indicators: e.Indicators,
		Scoring:    e.Scoring,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(c *Config) {}, ""},
		{"loader", func(c *Config) { c.Data.Loader = "disk" }, "data.loader"},
		{"playback", func(c *Config) { c.Data.Playback = "loop" }, "data.playback"},
		{"workers", func(c *Config) { c.Scan.Workers = 0 }, "scan.workers"},
		{"stream interval", func(c *Config) { c.Stream.Interval = 0 }, "stream.interval"},
		{"pricefeed rate", func(c *Config) { c.PriceFeed = PriceFeedConfig{Enabled: true, BaseURL: "x"} }, "pricefeed.rate_per_second"},
		{"redis url", func(c *Config) { c.Redis.Enabled = true }, "redis.url"},
		{"notify topic", func(c *Config) { c.Notify.Enabled = true }, "notify.topic"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"pcr band", func(c *Config) { c.Analytics.PCRBullishBelow = 2 }, "analytics.pcr_bullish_below"},
		{"ma periods", func(c *Config) { c.Indicators.SlowMAPeriod = 10 }, "moving average"},
		{"signal thresholds", func(c *Config) { c.Scoring.BuyAt = 80 }, "scoring signal thresholds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected valid config, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tt.wantField)
			}
			if !strings.Contains(err.Error(), tt.wantField) {
				t.Errorf("expected error to mention %q, got: %v", tt.wantField, err)
			}
		})
	}
}

func TestValidate_InvalidTickers(t *testing.T) {
	cfg := validConfig()
	cfg.Tickers = []string{"SPX", "INVALID_TICKER", "XAUUSD", "FAKE"}

	err := cfg.Validate()
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected *ValidationErrors, got %T", err)
	}
	if len(verrs.InvalidTickers) != 2 {
		t.Errorf("expected 2 invalid tickers, got %v", verrs.InvalidTickers)
	}

	msg := err.Error()
	if !strings.Contains(msg, "INVALID_TICKER") || !strings.Contains(msg, "Valid tickers:") {
		t.Errorf("error message should list invalid and valid tickers, got: %s", msg)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Tickers = []string{"NOPE"}
	cfg.Scan.Workers = 0
	cfg.Logging.Level = "loud"

	var verrs *ValidationErrors
	if !errors.As(cfg.Validate(), &verrs) {
		t.Fatal("expected *ValidationErrors")
	}
	if len(verrs.InvalidTickers) != 1 || len(verrs.Fields) != 2 {
		t.Errorf("expected every problem reported, got %+v", verrs)
	}
}
