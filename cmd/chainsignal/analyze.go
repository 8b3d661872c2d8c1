package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/engine"
)

func analyzeCmd() *cobra.Command {
	var signalOnly bool

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Analyze one option chain from a JSON request",
		Long: `Analyze an option chain described by a JSON request and print the result.

The request carries current_price plus any of the oi, volume and oi_change
strike lists, and optionally bars for the technical pass. Use "-" to read
the request from stdin.

Examples:
  # Full analysis
  chainsignal analyze request.json

  # Only the trading signal
  cat request.json | chainsignal analyze --signal-only -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(args[0])
			if err != nil {
				return err
			}

			eng := engine.New(cfg.EngineConfig(), engine.Gateways{}, nil, logger)
			a, err := eng.Analyze(cmd.Context(), *req)
			if err != nil {
				return err
			}

			logger.Debug("analysis finished",
				zap.String("id", a.ID),
				zap.Int("strikes", len(a.Snapshot.Strikes)),
				zap.Int("warnings", len(a.Warnings)))

			if signalOnly {
				return printJSON(cmd.OutOrStdout(), a.Signal)
			}
			return printJSON(cmd.OutOrStdout(), a)
		},
	}

	cmd.Flags().BoolVar(&signalOnly, "signal-only", false, "print only the trading signal")

	return cmd
}

func readRequest(path string) (*engine.Request, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req engine.Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}
	return &req, nil
}
