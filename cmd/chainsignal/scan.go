package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/app"
	"github.com/dgnsrekt/chainsignal/internal/batch"
	"github.com/dgnsrekt/chainsignal/internal/schedule"
)

func scanCmd() *cobra.Command {
	var (
		dryRun  bool
		tickers []string
		expiry  string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "scan [YYYY-MM-DD] [END_DATE]",
		Short: "Score every configured ticker for the specified date(s)",
		Long: `Analyze the latest snapshot of every configured ticker and print its signal.

Without a date the newest date folder under the data directory is used.
Weekends and NYSE holidays in a date range are skipped. Signals are written
to the signal store and a scan summary is sent when notifications are enabled.

Examples:
  # Scan the latest recorded date
  chainsignal scan

  # Scan a date range
  chainsignal scan 2025-11-10 2025-11-14

  # Override tickers from config
  chainsignal scan --tickers SPX,GC 2025-11-14

  # Dry run to see what would be analyzed
  chainsignal scan --dry-run 2025-11-14`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			effectiveTickers, err := resolveTickers(tickers)
			if err != nil {
				return err
			}

			var dates []string
			if len(args) == 0 {
				if err := cfg.ResolveDataDate(); err != nil {
					return err
				}
				dates = []string{cfg.Data.Date}
			} else {
				dates, err = parseDates(args)
				if err != nil {
					return err
				}
				dates = filterMarketDays(dates, schedule.New("America/New_York"), logger)
			}
			if len(dates) == 0 {
				return fmt.Errorf("no market days in range")
			}

			tasks := batch.TasksFor(effectiveTickers, expiry)
			logger.Info("generated tasks", zap.Int("count", len(tasks)), zap.Strings("dates", dates))

			if dryRun {
				for _, date := range dates {
					for _, t := range tasks {
						fmt.Fprintf(cmd.OutOrStdout(), "Would analyze: %s %s\n", date, t)
					}
				}
				return nil
			}

			if workers < 1 {
				workers = cfg.Scan.Workers
			}

			var failed int
			for _, date := range dates {
				n, err := scanDate(cmd, date, tasks, workers)
				if err != nil {
					return err
				}
				failed += n
			}
			if failed > 0 {
				return fmt.Errorf("%d analyses failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be analyzed")
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "override tickers from config")
	cmd.Flags().StringVar(&expiry, "expiry", "", "analyze this expiry instead of the nearest one")
	cmd.Flags().IntVar(&workers, "workers", 0, "override scan.workers from config")

	return cmd
}

// scanDate runs one batch against the data of date and returns the number of
// failed analyses.
func scanDate(cmd *cobra.Command, date string, tasks []batch.Task, workers int) (int, error) {
	ctx := cmd.Context()

	dateCfg := *cfg
	dateCfg.Data.Date = date
	// A scan reads the latest snapshot, never a playback step.
	dateCfg.Data.Playback = ""

	a, err := app.New(&dateCfg, logger)
	if err != nil {
		return 0, err
	}
	defer a.Close()

	start := time.Now()
	mgr := batch.NewManager(a.Engine, a.Store, workers, logger)
	result, err := mgr.Execute(ctx, tasks)
	if err != nil {
		return 0, err
	}
	duration := time.Since(start)

	printScan(cmd.OutOrStdout(), date, result)

	logger.Info("scan complete",
		zap.String("date", date),
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("not_found", result.NotFound),
		zap.Int("failed", result.Failed),
	)
	for _, e := range result.Errors {
		logger.Error("analysis error", zap.String("error", e))
	}

	if err := a.Notifier.SendScan(ctx, result, date, duration); err != nil {
		logger.Warn("failed to send scan notification", zap.Error(err))
	}

	return result.Failed, nil
}

func printScan(w io.Writer, date string, result *batch.BatchResult) {
	fmt.Fprintf(w, "%s\n", date)
	for _, a := range result.Results {
		sig := a.Signal
		strength := string(sig.Strength)
		if strength == "" {
			strength = "-"
		}
		fmt.Fprintf(w, "  %-8s %-8s %-7s %6.1f  %s\n", a.Ticker, sig.Signal, strength, sig.Score, sig.Summary)
	}
	if result.NotFound > 0 {
		fmt.Fprintf(w, "  %d ticker(s) without data\n", result.NotFound)
	}
}
