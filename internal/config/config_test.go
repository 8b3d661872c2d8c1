package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected defaults to validate, got error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Stream.Interval != 5*time.Second {
		t.Errorf("expected 5s stream interval, got %v", cfg.Stream.Interval)
	}
	if cfg.Scan.Workers != 4 {
		t.Errorf("expected 4 scan workers by default, got %d", cfg.Scan.Workers)
	}
	if cfg.Scoring.Base != 50 || cfg.Analytics.WallLevels != 3 || cfg.Indicators.RSIPeriod != 14 {
		t.Errorf("expected reference thresholds, got %+v %+v %+v", cfg.Scoring, cfg.Analytics, cfg.Indicators)
	}

	ec := cfg.EngineConfig()
	if ec.BarsLimit != 250 || !ec.AllowSynthetic || ec.Scoring.StrongBuyAt != 75 {
		t.Errorf("unexpected engine config %+v", ec)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
tickers: [GC, XAUUSD]
data:
  loader: stream
scoring:
  vwap_delta: 20
analytics:
  wall_levels: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHAINSIGNAL_SERVER_PORT", "9090")
	t.Setenv("CHAINSIGNAL_PRICEFEED_API_KEY", "secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" || cfg.PriceFeed.APIKey != "secret" {
		t.Errorf("expected env overrides, got port %q key %q", cfg.Server.Port, cfg.PriceFeed.APIKey)
	}
	if cfg.Data.Loader != "stream" || len(cfg.Tickers) != 2 {
		t.Errorf("expected file overrides, got %+v %v", cfg.Data, cfg.Tickers)
	}
	if cfg.Scoring.VWAPDelta != 20 || cfg.Analytics.WallLevels != 5 {
		t.Errorf("expected threshold overrides, got vwap %v walls %d", cfg.Scoring.VWAPDelta, cfg.Analytics.WallLevels)
	}
	// Keys the file leaves out keep their reference values.
	if cfg.Scoring.FlowDelta != 15 || cfg.Analytics.PCRBearishAbove != 1.0 {
		t.Errorf("expected untouched thresholds, got flow %v pcr %v", cfg.Scoring.FlowDelta, cfg.Analytics.PCRBearishAbove)
	}
}

func TestLoadThresholdEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minimal.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"8080\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHAINSIGNAL_SERVER_PORT", "9999")
	t.Setenv("CHAINSIGNAL_SCORING_VWAP_DELTA", "7")
	t.Setenv("CHAINSIGNAL_INDICATORS_SWING_WIDTH", "3")
	t.Setenv("CHAINSIGNAL_ANALYTICS_MAX_SPIKES", "4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("expected port override, got %q", cfg.Server.Port)
	}
	if cfg.Scoring.VWAPDelta != 7 {
		t.Errorf("expected scoring.vwap_delta 7, got %v", cfg.Scoring.VWAPDelta)
	}
	if cfg.Indicators.SwingWidth != 3 {
		t.Errorf("expected indicators.swing_width 3, got %d", cfg.Indicators.SwingWidth)
	}
	if cfg.Analytics.MaxSpikes != 4 {
		t.Errorf("expected analytics.max_spikes 4, got %d", cfg.Analytics.MaxSpikes)
	}
	// Keys set neither in the file nor the environment keep reference values.
	if cfg.Scoring.FlowDelta != 15 || cfg.Indicators.SyntheticSpacing != 15 || cfg.Analytics.SpikeDominance != 1.5 {
		t.Errorf("expected reference thresholds, got flow %v spacing %v dominance %v",
			cfg.Scoring.FlowDelta, cfg.Indicators.SyntheticSpacing, cfg.Analytics.SpikeDominance)
	}
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("tickers: [NOPE]\ndata:\n  loader: disk\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestResolveDataDate(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"2025-11-13", "2025-11-14", "2025-11-15"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			t.Fatal(err)
		}
	}
	// Only non-empty date folders count.
	for _, d := range []string{"2025-11-13", "2025-11-14"} {
		if err := os.MkdirAll(filepath.Join(dir, d, "GC"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "notes"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{Data: DataConfig{Directory: dir, Date: "latest"}}
	if err := cfg.ResolveDataDate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Data.Date != "2025-11-14" {
		t.Errorf("expected 2025-11-14, got %s", cfg.Data.Date)
	}

	cfg.Data.Date = "2025-11-13"
	if err := cfg.ResolveDataDate(); err != nil || cfg.Data.Date != "2025-11-13" {
		t.Errorf("expected explicit date kept, got %s (%v)", cfg.Data.Date, err)
	}

	empty := &Config{Data: DataConfig{Directory: t.TempDir(), Date: ""}}
	if err := empty.ResolveDataDate(); err == nil {
		t.Error("expected error when no date folders exist")
	}
}
