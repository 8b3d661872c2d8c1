package data

import (
	"strings"
	"sync"
)

// CacheMode defines how playback handles end-of-data
type CacheMode string

const (
	CacheModeExhaust  CacheMode = "exhaust"  // ErrExhausted at end
	CacheModeRotation CacheMode = "rotation" // wrap to 0
)

// IndexCache tracks playback positions per ticker and consumer.
type IndexCache struct {
	mu      sync.RWMutex
	indexes map[string]int // key: ticker/consumer
	mode    CacheMode
}

func NewIndexCache(mode CacheMode) *IndexCache {
	return &IndexCache{
		indexes: make(map[string]int),
		mode:    mode,
	}
}

// CacheKey creates the key for index tracking. All sources of a ticker
// share one position so the three sets stay aligned.
func CacheKey(ticker, consumer string) string {
	return ticker + "/" + consumer
}

// GetAndAdvance returns the current index and advances it.
// Returns (index, isExhausted)
func (c *IndexCache) GetAndAdvance(key string, dataLength int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dataLength <= 0 {
		return 0, true
	}

	idx := c.indexes[key]

	if c.mode == CacheModeExhaust && idx >= dataLength {
		return idx, true
	}

	currentIdx := idx
	if c.mode == CacheModeRotation {
		currentIdx = idx % dataLength
		c.indexes[key] = (currentIdx + 1) % dataLength
	} else {
		c.indexes[key] = idx + 1
	}

	return currentIdx, false
}

// Reset clears positions for one consumer, or all positions when consumer
// is empty. Returns the number of positions removed.
func (c *IndexCache) Reset(consumer string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if consumer == "" {
		count := len(c.indexes)
		c.indexes = make(map[string]int)
		return count
	}

	suffix := "/" + consumer
	count := 0
	for k := range c.indexes {
		if len(k) > len(suffix) && strings.HasSuffix(k, suffix) {
			delete(c.indexes, k)
			count++
		}
	}
	return count
}

// GetIndex returns current index without advancing
func (c *IndexCache) GetIndex(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexes[key]
}
