package data

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

// Loader modes accepted by Open.
const (
	LoaderMemory = "memory"
	LoaderStream = "stream"
)

// Open builds the loader selected by mode for one trading date.
func Open(mode, dataDir, date string, logger *zap.Logger) (SnapshotLoader, error) {
	switch mode {
	case LoaderMemory, "":
		return NewMemoryLoader(dataDir, date, logger)
	case LoaderStream:
		return NewStreamLoader(dataDir, date, logger)
	default:
		return nil, fmt.Errorf("unknown loader mode %q", mode)
	}
}

// Gateway assembles per-source snapshots into the source sets the engine
// consumes.
type Gateway struct {
	loader SnapshotLoader
	logger *zap.Logger
}

func NewGateway(loader SnapshotLoader, logger *zap.Logger) *Gateway {
	return &Gateway{loader: loader, logger: logger}
}

// LatestStrikes returns the most recent snapshot of every source for ticker.
// With a non-empty expiry, the most recent snapshot for that expiry is used.
func (g *Gateway) LatestStrikes(ctx context.Context, ticker, expiry string) (*chain.SourceSets, error) {
	picks := make(map[string]*SnapshotRecord, len(Sources))
	for _, source := range Sources {
		n, err := g.loader.GetLength(ticker, source)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for i := n - 1; i >= 0; i-- {
			rec, err := g.loader.GetAtIndex(ctx, ticker, source, i)
			if err != nil {
				return nil, fmt.Errorf("read %s/%s[%d]: %w", ticker, source, i, err)
			}
			if expiry == "" || rec.Expiry == expiry {
				picks[source] = rec
				break
			}
		}
	}
	if len(picks) == 0 {
		return nil, fmt.Errorf("%s %s: %w", ticker, expiry, ErrNotFound)
	}
	return assembleSets(ticker, picks), nil
}

// Steps returns the playback length of ticker: the longest of its sources.
func (g *Gateway) Steps(ticker string) int {
	steps := 0
	for _, source := range Sources {
		if n, err := g.loader.GetLength(ticker, source); err == nil && n > steps {
			steps = n
		}
	}
	return steps
}

// StrikesAt returns the sets at playback step index. A shorter source
// contributes its last snapshot.
func (g *Gateway) StrikesAt(ctx context.Context, ticker string, index int) (*chain.SourceSets, error) {
	steps := g.Steps(ticker)
	if steps == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNotFound)
	}
	if index < 0 || index >= steps {
		return nil, ErrIndexOutOfBounds
	}
	picks := make(map[string]*SnapshotRecord, len(Sources))
	for _, source := range Sources {
		n, err := g.loader.GetLength(ticker, source)
		if err != nil || n == 0 {
			continue
		}
		i := index
		if i >= n {
			i = n - 1
		}
		rec, err := g.loader.GetAtIndex(ctx, ticker, source, i)
		if err != nil {
			return nil, fmt.Errorf("read %s/%s[%d]: %w", ticker, source, i, err)
		}
		picks[source] = rec
	}
	return assembleSets(ticker, picks), nil
}

// Tickers returns the tickers currently loaded.
func (g *Gateway) Tickers() []string {
	return Tickers(g.loader)
}

// assembleSets takes spot, timestamp and expiry from the first source
// present in merge order.
func assembleSets(ticker string, picks map[string]*SnapshotRecord) *chain.SourceSets {
	sets := &chain.SourceSets{Ticker: ticker}
	for _, source := range Sources {
		rec, ok := picks[source]
		if !ok {
			continue
		}
		if sets.Timestamp == 0 {
			sets.Timestamp = rec.Timestamp
			sets.Spot = rec.Spot
			sets.Expiry = rec.Expiry
		}
		switch source {
		case SourceOI:
			sets.OI = rec.Strikes
		case SourceVolume:
			sets.Volume = rec.Strikes
		case SourceOIChange:
			sets.OIChange = rec.Strikes
		}
	}
	return sets
}
