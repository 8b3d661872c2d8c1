package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ConvertStats counts the outcome of a ConvertDir run.
type ConvertStats struct {
	Converted int
	Skipped   int
	Failed    int
}

// ConvertDir rewrites every {source}.json array of snapshot records under dir
// as the {source}.jsonl file the loaders read, ordered by timestamp. Files
// whose JSONL already exists are skipped. The original JSON is removed after
// a successful conversion unless keep is set.
func ConvertDir(dir string, keep bool, logger *zap.Logger) (ConvertStats, error) {
	var stats ConvertStats

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-source files
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if !validSource(strings.TrimSuffix(info.Name(), ".json")) {
			return nil
		}

		jsonlPath := strings.TrimSuffix(path, ".json") + ".jsonl"

		// Skip if JSONL already exists
		if _, err := os.Stat(jsonlPath); err == nil {
			logger.Debug("skipping, JSONL exists", zap.String("file", path))
			stats.Skipped++
			return nil
		}

		logger.Info("converting", zap.String("file", path))

		n, err := convertFile(path, jsonlPath)
		if err != nil {
			logger.Error("conversion failed", zap.String("file", path), zap.Error(err))
			os.Remove(jsonlPath)
			stats.Failed++
			return nil // Continue with other files
		}
		logger.Debug("converted", zap.String("file", jsonlPath), zap.Int("records", n))

		if !keep {
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to delete original", zap.String("file", path), zap.Error(err))
			}
		}

		stats.Converted++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walking directory: %w", err)
	}

	logger.Info("conversion complete",
		zap.Int("converted", stats.Converted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d files failed to convert", stats.Failed)
	}
	return stats, nil
}

func convertFile(jsonPath, jsonlPath string) (int, error) {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var records []SnapshotRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, fmt.Errorf("parsing JSON array: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	outFile, err := os.Create(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	defer func() { _ = outFile.Close() }()

	// Encode writes one compact record per line
	enc := json.NewEncoder(outFile)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return 0, fmt.Errorf("writing line: %w", err)
		}
	}

	return len(records), nil
}
