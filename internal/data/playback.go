package data

import (
	"context"

	"github.com/dgnsrekt/chainsignal/internal/chain"
)

// DefaultConsumer is the playback position used when serving the engine.
const DefaultConsumer = "engine"

// Playback steps through a day of snapshots, one position per ticker and
// consumer. Used to replay a recorded session as if it were live.
type Playback struct {
	gw    *Gateway
	cache *IndexCache
}

func NewPlayback(gw *Gateway, cache *IndexCache) *Playback {
	return &Playback{gw: gw, cache: cache}
}

// Next returns the next step for consumer, or ErrExhausted once an
// exhaust-mode cache runs past the end.
func (p *Playback) Next(ctx context.Context, ticker, consumer string) (*chain.SourceSets, error) {
	steps := p.gw.Steps(ticker)
	if steps == 0 {
		return nil, ErrNotFound
	}
	idx, exhausted := p.cache.GetAndAdvance(CacheKey(ticker, consumer), steps)
	if exhausted {
		return nil, ErrExhausted
	}
	return p.gw.StrikesAt(ctx, ticker, idx)
}

// LatestStrikes advances the default consumer, so the engine sees the
// session unfold one step per call. Expiry is not filtered during playback.
func (p *Playback) LatestStrikes(ctx context.Context, ticker, expiry string) (*chain.SourceSets, error) {
	return p.Next(ctx, ticker, DefaultConsumer)
}

// Reset rewinds consumer, or everything when consumer is empty.
func (p *Playback) Reset(consumer string) int {
	return p.cache.Reset(consumer)
}
