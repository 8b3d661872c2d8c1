package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/config"
	"github.com/dgnsrekt/chainsignal/internal/schedule"
)

// parseDates parses date arguments and returns a list of dates
func parseDates(args []string) ([]string, error) {
	const layout = "2006-01-02"

	start, err := time.Parse(layout, args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid start date format (use YYYY-MM-DD): %w", err)
	}

	if len(args) == 1 {
		return []string{args[0]}, nil
	}

	end, err := time.Parse(layout, args[1])
	if err != nil {
		return nil, fmt.Errorf("invalid end date format (use YYYY-MM-DD): %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(layout))
	}

	return dates, nil
}

// filterMarketDays drops weekends and NYSE holidays, logging each skipped date
func filterMarketDays(dates []string, session *schedule.Session, logger *zap.Logger) []string {
	var marketDays []string
	for _, date := range dates {
		if session.IsMarketDay(date) {
			marketDays = append(marketDays, date)
		} else {
			logger.Warn("skipping non-market day", zap.String("date", date))
		}
	}
	return marketDays
}

// resolveTickers applies a --tickers override and validates the result
func resolveTickers(override []string) ([]string, error) {
	tickers := cfg.Tickers
	if len(override) > 0 {
		tickers = make([]string, 0, len(override))
		for _, t := range override {
			tickers = append(tickers, strings.ToUpper(strings.TrimSpace(t)))
		}
	}
	if len(tickers) == 0 {
		tickers = config.DefaultTickers
	}

	errs := &config.ValidationErrors{}
	config.ValidateTickers(errs, tickers)
	if errs.HasErrors() {
		return nil, errs
	}
	return tickers, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
