// Package history orchestrates historical-data retrieval: a TTL cache in
// front of lazily constructed providers, with one manager instance serving
// all callers in the process.
package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"brokerlink/internal/domain"
)

// DefaultTTL is the cache lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Key computes the deterministic cache key for a historical-data query.
// Identical arguments always produce the identical key; any differing
// argument produces a different key.
func Key(provider, symbol string, tf domain.Timeframe, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s_%d_%d",
		strings.ToLower(strings.TrimSpace(provider)),
		strings.ToUpper(strings.TrimSpace(symbol)),
		tf,
		start.UTC().UnixMilli(),
		end.UTC().UnixMilli(),
	)
}

type entry struct {
	bars       []domain.Bar
	insertedAt time.Time
}

// Cache is a mutex-guarded TTL cache of historical-data results. Expired
// entries are purged on read; expiry is never surfaced to callers, a stale
// hit simply reports a miss.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewCache creates a Cache with the given TTL. A non-positive TTL falls back
// to DefaultTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached bars for key. A hit older than the TTL deletes the
// entry and reports a miss.
func (c *Cache) Get(key string) ([]domain.Bar, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, ok := c.entries[key]; ok && c.now().Sub(cur.insertedAt) >= c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.bars, true
}

// Set stores bars under key, overwriting any previous entry.
func (c *Cache) Set(key string, bars []domain.Bar) {
	c.mu.Lock()
	c.entries[key] = entry{bars: bars, insertedAt: c.now()}
	c.mu.Unlock()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len returns the number of live entries, counting expired ones not yet
// purged.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
