package data

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotFound         = errors.New("data not found")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	ErrExhausted        = errors.New("playback exhausted")
)

// Source names match the JSONL file names under each ticker directory.
const (
	SourceOI       = "oi"
	SourceVolume   = "volume"
	SourceOIChange = "oi_change"
)

// Sources lists every source in merge order.
var Sources = []string{SourceOI, SourceVolume, SourceOIChange}

func validSource(source string) bool {
	for _, s := range Sources {
		if s == source {
			return true
		}
	}
	return false
}

// SnapshotLoader provides random access to chain snapshots.
type SnapshotLoader interface {
	// GetAtIndex returns the snapshot at the given index of a ticker's source file.
	GetAtIndex(ctx context.Context, ticker, source string, index int) (*SnapshotRecord, error)

	// GetLength returns the number of snapshots available.
	GetLength(ticker, source string) (int, error)

	Exists(ticker, source string) bool

	// GetLoadedKeys returns all loaded ticker/source keys.
	GetLoadedKeys() []string

	Close() error
}

// DataKey creates a unique key for ticker/source
func DataKey(ticker, source string) string {
	return ticker + "/" + source
}

// Tickers returns the sorted unique tickers a loader holds.
func Tickers(loader SnapshotLoader) []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range loader.GetLoadedKeys() {
		ticker, _, ok := strings.Cut(key, "/")
		if !ok || seen[ticker] {
			continue
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	sort.Strings(out)
	return out
}

// walkSources calls fn for every {dataDir}/{date}/{ticker}/{source}.jsonl file.
// Files that are not a known source are skipped.
func walkSources(dataDir, date string, fn func(path, ticker, source string) error) error {
	dateDir := filepath.Join(dataDir, date)

	err := filepath.Walk(dateDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}

		// rel = "SPX/oi.jsonl"
		rel, err := filepath.Rel(dateDir, path)
		if err != nil {
			return nil
		}
		ticker := filepath.Dir(rel)
		source := strings.TrimSuffix(filepath.Base(rel), ".jsonl")
		if ticker == "." || strings.Contains(ticker, string(filepath.Separator)) || !validSource(source) {
			return nil
		}
		return fn(path, ticker, source)
	})
	if err != nil {
		return fmt.Errorf("walking data directory: %w", err)
	}
	return nil
}
