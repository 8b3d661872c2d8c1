package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/app"
	"github.com/dgnsrekt/chainsignal/internal/data"
	"github.com/dgnsrekt/chainsignal/internal/engine"
)

const replayConsumer = "replay"

func replayCmd() *cobra.Command {
	var (
		every    int
		asJSON   bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay YYYY-MM-DD TICKER",
		Short: "Replay a recorded session and score every snapshot",
		Long: `Step through every recorded snapshot of a ticker on one date and print
the signal the engine would have produced at that point.

Examples:
  # Score every step of the GC session
  chainsignal replay 2025-11-14 GC

  # Every 10th step as JSON lines
  chainsignal replay --every 10 --json 2025-11-14 SPX`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := parseDates(args[:1]); err != nil {
				return err
			}
			ticker := strings.ToUpper(args[1])
			if every < 1 {
				every = 1
			}

			dateCfg := *cfg
			dateCfg.Data.Date = args[0]
			dateCfg.Data.Playback = ""

			a, err := app.New(&dateCfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			steps := a.Gateway.Steps(ticker)
			if steps == 0 {
				return fmt.Errorf("%s: %w", ticker, data.ErrNotFound)
			}
			logger.Info("replaying session", zap.String("ticker", ticker), zap.Int("steps", steps))

			playback := data.NewPlayback(a.Gateway, data.NewIndexCache(data.CacheModeExhaust))
			out := cmd.OutOrStdout()
			for step := 0; ; step++ {
				sets, err := playback.Next(ctx, ticker, replayConsumer)
				if errors.Is(err, data.ErrExhausted) {
					break
				}
				if err != nil {
					return fmt.Errorf("step %d: %w", step, err)
				}
				if step%every != 0 {
					continue
				}

				an, err := a.Engine.AnalyzeSets(ctx, sets)
				if err != nil {
					return fmt.Errorf("step %d: %w", step, err)
				}
				if err := printStep(out, step, sets.Timestamp, an, asJSON); err != nil {
					return err
				}

				if interval > 0 {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(interval):
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&every, "every", 1, "score every Nth step")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON signal per line")
	cmd.Flags().DurationVar(&interval, "interval", 0, "pause between steps")

	return cmd
}

type replayLine struct {
	Step      int     `json:"step"`
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
	Score     float64 `json:"score"`
	Signal    string  `json:"signal"`
	Strength  string  `json:"strength,omitempty"`
	Warnings  int     `json:"warnings"`
}

func printStep(w io.Writer, step int, ts int64, a *engine.Analysis, asJSON bool) error {
	line := replayLine{
		Step:      step,
		Timestamp: ts,
		Price:     a.Snapshot.CurrentPrice,
		Score:     a.Signal.Score,
		Signal:    string(a.Signal.Signal),
		Strength:  string(a.Signal.Strength),
		Warnings:  len(a.Warnings),
	}
	if asJSON {
		return printJSONLine(w, line)
	}
	_, err := fmt.Fprintf(w, "%5d  %s  %10.2f  %6.1f  %-7s %s\n",
		line.Step,
		time.Unix(ts, 0).UTC().Format(time.TimeOnly),
		line.Price, line.Score, line.Signal, line.Strength)
	return err
}
