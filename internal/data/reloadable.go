package data

import (
	"context"
	"sync"
)

// ReloadableLoader wraps a SnapshotLoader and allows atomic replacement,
// so a new trading date can be loaded without restarting the server.
type ReloadableLoader struct {
	mu      sync.RWMutex
	current SnapshotLoader
}

var _ SnapshotLoader = (*ReloadableLoader)(nil)

func NewReloadableLoader(initial SnapshotLoader) *ReloadableLoader {
	return &ReloadableLoader{
		current: initial,
	}
}

// Swap atomically replaces the underlying loader and returns the old one.
// Caller is responsible for closing the old loader after swap.
func (r *ReloadableLoader) Swap(newLoader SnapshotLoader) SnapshotLoader {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current
	r.current = newLoader
	return old
}

func (r *ReloadableLoader) GetAtIndex(ctx context.Context, ticker, source string, index int) (*SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.GetAtIndex(ctx, ticker, source, index)
}

func (r *ReloadableLoader) GetLength(ticker, source string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.GetLength(ticker, source)
}

func (r *ReloadableLoader) Exists(ticker, source string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Exists(ticker, source)
}

func (r *ReloadableLoader) GetLoadedKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.GetLoadedKeys()
}

// Close releases any resources held by the current loader.
func (r *ReloadableLoader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Close()
}
