package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ValidationErrors collects all validation errors
type ValidationErrors struct {
	InvalidTickers []string
	Fields         []string
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.InvalidTickers) > 0 || len(e.Fields) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")

	if len(e.InvalidTickers) > 0 {
		sb.WriteString("\nInvalid tickers:\n")
		for _, t := range e.InvalidTickers {
			sb.WriteString(fmt.Sprintf("  - %s\n", t))
		}
		sb.WriteString(fmt.Sprintf("\nValid tickers: %s\n", validTickersList()))
	}

	if len(e.Fields) > 0 {
		sb.WriteString("\nInvalid settings:\n")
		for _, f := range e.Fields {
			sb.WriteString(fmt.Sprintf("  - %s\n", f))
		}
	}

	return sb.String()
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Fields = append(e.Fields, fmt.Sprintf(format, args...))
}

// Validate checks every section and reports all problems at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	ValidateTickers(errs, c.Tickers)

	if !validLoaders[c.Data.Loader] {
		errs.add("data.loader %q (must be 'memory' or 'stream')", c.Data.Loader)
	}
	if !validPlayback[c.Data.Playback] {
		errs.add("data.playback %q (must be empty, 'exhaust' or 'rotation')", c.Data.Playback)
	}
	if c.Scan.Workers < 1 {
		errs.add("scan.workers must be >= 1")
	}
	if c.Stream.Enabled && c.Stream.Interval <= 0 {
		errs.add("stream.interval must be positive")
	}
	if c.PriceFeed.Enabled {
		if c.PriceFeed.BaseURL == "" {
			errs.add("pricefeed.base_url is required when pricefeed.enabled=true")
		}
		if c.PriceFeed.RatePerSecond < 1 {
			errs.add("pricefeed.rate_per_second must be >= 1")
		}
	}
	if c.Redis.Enabled && c.Redis.URL == "" {
		errs.add("redis.url is required when redis.enabled=true")
	}
	if err := c.Notify.Validate(); err != nil {
		errs.add("%v", err)
	}
	if !validLevels[c.Logging.Level] {
		errs.add("logging.level %q (must be debug, info, warn or error)", c.Logging.Level)
	}

	a := c.Analytics
	if a.WallLevels < 1 {
		errs.add("analytics.wall_levels must be >= 1")
	}
	if a.PCRBullishBelow >= a.PCRBearishAbove {
		errs.add("analytics.pcr_bullish_below must be below analytics.pcr_bearish_above")
	}
	if a.MaxSpikes < 1 {
		errs.add("analytics.max_spikes must be >= 1")
	}

	ind := c.Indicators
	if ind.RSIPeriod < 2 || ind.ATRPeriod < 1 {
		errs.add("indicators.rsi_period must be >= 2 and indicators.atr_period >= 1")
	}
	if !(ind.FastMAPeriod < ind.SlowMAPeriod && ind.SlowMAPeriod < ind.LongMAPeriod) {
		errs.add("indicators moving average periods must be strictly increasing")
	}

	s := c.Scoring
	if !(s.StrongSellAt < s.SellAt && s.SellAt < s.MildSellAt && s.MildSellAt <= s.MildBuyAt && s.MildBuyAt < s.BuyAt && s.BuyAt < s.StrongBuyAt) {
		errs.add("scoring signal thresholds must be ordered strong_sell < sell < mild_sell <= mild_buy < buy < strong_buy")
	}
	if s.Base < 0 || s.Base > 100 {
		errs.add("scoring.base must be within [0, 100]")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidateTickers records every unknown ticker.
func ValidateTickers(errs *ValidationErrors, tickers []string) {
	for _, ticker := range tickers {
		if !ValidTickers[ticker] {
			errs.InvalidTickers = append(errs.InvalidTickers, ticker)
		}
	}
}

// DetectLatestDate scans the data directory for date folders and returns the most recent one
func DetectLatestDate(dataDir string) (string, error) {
	datePattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return "", fmt.Errorf("reading data directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if datePattern.MatchString(name) {
			// Verify it's not empty (has at least one file/folder inside)
			subPath := filepath.Join(dataDir, name)
			subEntries, err := os.ReadDir(subPath)
			if err == nil && len(subEntries) > 0 {
				dates = append(dates, name)
			}
		}
	}

	if len(dates) == 0 {
		return "", fmt.Errorf("no date folders found in %s", dataDir)
	}

	// Sort descending (newest first) - YYYY-MM-DD format sorts lexicographically
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	return dates[0], nil
}

func validTickersList() string {
	tickers := make([]string, 0, len(ValidTickers))
	for t := range ValidTickers {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return strings.Join(tickers, ", ")
}
