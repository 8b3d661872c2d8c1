package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/chainsignal/internal/analytics"
	"github.com/dgnsrekt/chainsignal/internal/engine"
	"github.com/dgnsrekt/chainsignal/internal/indicators"
	"github.com/dgnsrekt/chainsignal/internal/notify"
	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	PriceFeed PriceFeedConfig `mapstructure:"pricefeed"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Notify    notify.Config   `mapstructure:"notify"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Tickers   []string        `mapstructure:"tickers"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	Engine     EngineConfig      `mapstructure:"engine"`
	Analytics  analytics.Config  `mapstructure:"analytics"`
	Indicators indicators.Config `mapstructure:"indicators"`
	Scoring    scoring.Config    `mapstructure:"scoring"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DataConfig struct {
	Directory string `mapstructure:"directory"`
	// Date is a YYYY-MM-DD folder under Directory, or "latest".
	Date   string `mapstructure:"date"`
	Loader string `mapstructure:"loader"` // "memory" or "stream"
	// Playback replays snapshots one step per request instead of serving the
	// latest: "" (off), "exhaust" or "rotation".
	Playback string `mapstructure:"playback"`
}

type PriceFeedConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelay    int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Password string        `mapstructure:"password"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StreamConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	// SessionOnly pauses the streamer outside regular market sessions.
	SessionOnly bool `mapstructure:"session_only"`
}

type ScanConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

type EngineConfig struct {
	BarsLimit      int  `mapstructure:"bars_limit"`
	AllowSynthetic bool `mapstructure:"allow_synthetic"`
	SyntheticBars  int  `mapstructure:"synthetic_bars"`
}

// EngineConfig assembles the engine configuration from its sections.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		Analytics:      c.Analytics,
		Indicators:     c.Indicators,
		Scoring:        c.Scoring,
		BarsLimit:      c.Engine.BarsLimit,
		AllowSynthetic: c.Engine.AllowSynthetic,
		SyntheticBars:  c.Engine.SyntheticBars,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("data.directory", "data")
	v.SetDefault("data.date", "latest")
	v.SetDefault("data.loader", "memory")
	v.SetDefault("data.playback", "")
	v.SetDefault("pricefeed.enabled", false)
	v.SetDefault("pricefeed.base_url", "http://localhost:8090")
	v.SetDefault("pricefeed.timeout_sec", 10)
	v.SetDefault("pricefeed.retry_count", 3)
	v.SetDefault("pricefeed.retry_delay_sec", 1)
	v.SetDefault("pricefeed.rate_per_second", 5)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.ttl", "15m")
	n := notify.DefaultConfig()
	v.SetDefault("notify.enabled", n.Enabled)
	v.SetDefault("notify.server", n.Server)
	v.SetDefault("notify.priority", n.Priority)
	v.SetDefault("notify.tags", n.Tags)
	v.SetDefault("notify.buy_alert", n.BuyAlert)
	v.SetDefault("notify.sell_alert", n.SellAlert)
	v.SetDefault("stream.enabled", true)
	v.SetDefault("stream.interval", "5s")
	v.SetDefault("stream.session_only", false)
	v.SetDefault("scan.workers", 4)
	v.SetDefault("tickers", DefaultTickers)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	e := engine.DefaultConfig()
	v.SetDefault("engine.bars_limit", e.BarsLimit)
	v.SetDefault("engine.allow_synthetic", e.AllowSynthetic)
	v.SetDefault("engine.synthetic_bars", e.SyntheticBars)
	for section, values := range map[string]any{
		"analytics":  e.Analytics,
		"indicators": e.Indicators,
		"scoring":    e.Scoring,
	} {
		if err := setSectionDefaults(v, section, values); err != nil {
			return nil, err
		}
	}

	// Environment variable support
	v.SetEnvPrefix("CHAINSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind secrets to env vars
	_ = v.BindEnv("pricefeed.api_key", "CHAINSIGNAL_PRICEFEED_API_KEY")
	_ = v.BindEnv("redis.password", "CHAINSIGNAL_REDIS_PASSWORD")
	_ = v.BindEnv("notify.topic", "CHAINSIGNAL_NOTIFY_TOPIC")
	_ = v.BindEnv("notify.token", "CHAINSIGNAL_NOTIFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// setSectionDefaults registers every field of a threshold section as a
// default so each key is known to AutomaticEnv.
func setSectionDefaults(v *viper.Viper, section string, values any) error {
	fields := map[string]any{}
	if err := mapstructure.Decode(values, &fields); err != nil {
		return fmt.Errorf("flattening %s defaults: %w", section, err)
	}
	for key, value := range fields {
		v.SetDefault(section+"."+key, value)
	}
	return nil
}

// ResolveDataDate replaces a "latest" data date with the newest date folder.
func (c *Config) ResolveDataDate() error {
	if c.Data.Date != "" && c.Data.Date != "latest" {
		return nil
	}
	detected, err := DetectLatestDate(c.Data.Directory)
	if err != nil {
		return fmt.Errorf("failed to detect latest date in %s: %w", c.Data.Directory, err)
	}
	c.Data.Date = detected
	return nil
}
