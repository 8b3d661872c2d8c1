package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chainsignal/internal/data"
)

func convertCmd() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "convert-to-jsonl YYYY-MM-DD",
		Short: "Convert JSON snapshot arrays to JSONL format",
		Long: `Convert {source}.json snapshot arrays to the {source}.jsonl files the
loaders read.

Each array element becomes one line, ordered by timestamp. Original JSON
files are deleted after successful conversion unless --keep is given.

Examples:
  # Convert snapshot files for a specific date
  chainsignal convert-to-jsonl 2025-11-14`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := parseDates(args); err != nil {
				return err
			}
			dir := filepath.Join(cfg.Data.Directory, args[0])

			_, err := data.ConvertDir(dir, keep, logger)
			return err
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "keep the original JSON files")

	return cmd
}
