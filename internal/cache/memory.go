package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache backed by a map. Expired entries are
// treated as absent on read and lazily deleted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	// now is swapped out in tests to control the clock.
	now func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Put stores value under key with the given TTL, overwriting any
// existing entry.
func (c *MemoryCache) Put(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	c.entries[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
	return nil
}

// Get returns the value stored under key, or ErrCacheMiss if the key is
// absent or expired.
func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", ErrCacheMiss
	}

	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Put may have
		// replaced the entry with a fresh one.
		if cur, ok := c.entries[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", ErrCacheMiss
	}

	return e.value, nil
}

// Has reports whether key holds an unexpired entry.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)
	return err == nil
}

var _ Cache = (*MemoryCache)(nil)
