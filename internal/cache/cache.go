// Package cache provides an expiring key/value store with swappable
// backends (in-memory, Redis).
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is a key/value store with per-entry TTL. An entry past its TTL
// behaves as if it had never been set; Get must never return stale data.
type Cache interface {
	// Put stores value under key, overwriting any existing entry, with a
	// logical expiry of ttl from now.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value stored under key, or ErrCacheMiss if the key
	// is absent or its entry has expired.
	Get(ctx context.Context, key string) (string, error)

	// Has reports whether Get would return a value for key.
	Has(ctx context.Context, key string) bool
}
