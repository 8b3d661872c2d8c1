// Package cache keeps the latest trading signal per ticker.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/chainsignal/internal/scoring"
)

// Entry is the cached view of one analysis.
type Entry struct {
	Ticker      string                `json:"ticker"`
	AnalysisID  string                `json:"analysis_id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Signal      scoring.TradingSignal `json:"signal"`
}

// Store persists the latest Entry per ticker. Get returns nil, nil for a
// ticker that is not cached.
type Store interface {
	Put(ctx context.Context, entry *Entry) error
	Get(ctx context.Context, ticker string) (*Entry, error)
	Close() error
}

// Key returns the cache key of ticker.
func Key(ticker string) string {
	return fmt.Sprintf("signal:%s", ticker)
}

// MemoryStore is an in-process Store with the same TTL semantics as redis.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{entry: *entry}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[Key(entry.Ticker)] = e
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, ticker string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[Key(ticker)]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		return nil, nil
	}
	out := e.entry
	return &out, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
