package notify

import (
	"errors"
	"fmt"
)

// Config holds ntfy notification configuration.
type Config struct {
	Enabled  bool   `mapstructure:"enabled"`  // Whether notifications are enabled
	Server   string `mapstructure:"server"`   // ntfy server URL (default: https://ntfy.sh)
	Topic    string `mapstructure:"topic"`    // Topic name (required if enabled)
	Priority string `mapstructure:"priority"` // Message priority: min, low, default, high, urgent
	Tags     string `mapstructure:"tags"`     // Comma-separated emoji tags (e.g., "chart_with_upwards_trend")
	Token    string `mapstructure:"token"`    // Optional access token for private topics

	// Signals scoring at or above BuyAlert, or at or below SellAlert, are sent.
	BuyAlert  float64 `mapstructure:"buy_alert"`
	SellAlert float64 `mapstructure:"sell_alert"`
}

func DefaultConfig() Config {
	return Config{
		Server:    "https://ntfy.sh",
		Priority:  "default",
		Tags:      "chart_with_upwards_trend",
		BuyAlert:  75,
		SellAlert: 25,
	}
}

// Validate checks configuration is valid when enabled.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.Topic == "" {
		return errors.New("notify.topic is required when notify.enabled=true")
	}

	validPriorities := map[string]bool{
		"min": true, "low": true, "default": true, "high": true, "urgent": true,
	}
	if !validPriorities[c.Priority] {
		return fmt.Errorf("invalid notify.priority: %s (valid: min, low, default, high, urgent)", c.Priority)
	}

	if c.SellAlert >= c.BuyAlert {
		return fmt.Errorf("notify.sell_alert (%v) must be below notify.buy_alert (%v)", c.SellAlert, c.BuyAlert)
	}

	return nil
}

// ShouldAlert reports whether score is strong enough to notify.
func (c *Config) ShouldAlert(score float64) bool {
	return score >= c.BuyAlert || score <= c.SellAlert
}
