package main

import (
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chainsignal/internal/app"
)

func serveCmd() *cobra.Command {
	var (
		port     string
		date     string
		playback string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket signal stream",
		Long: `Serve signals over HTTP and websockets until interrupted.

Examples:
  # Serve the latest recorded date
  chainsignal serve

  # Replay a recorded session one snapshot per request
  chainsignal serve --date 2025-11-14 --playback rotation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
			}
			if date != "" {
				if _, err := parseDates([]string{date}); err != nil {
					return err
				}
				cfg.Data.Date = date
			}
			if cmd.Flags().Changed("playback") {
				cfg.Data.Playback = playback
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			if err := cfg.ResolveDataDate(); err != nil {
				return err
			}

			a, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "override server.port from config")
	cmd.Flags().StringVar(&date, "date", "", "data date to serve (YYYY-MM-DD)")
	cmd.Flags().StringVar(&playback, "playback", "", "playback mode: exhaust or rotation")

	return cmd
}
