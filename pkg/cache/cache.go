// Package cache provides byte-level cache backends and fetch-key derivation
// for the admin panel's stale-while-revalidate store.
//
// # Backends
//
// Every backend implements [Cache], a minimal byte store with per-entry TTL:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [MemoryCache]: process-local map, useful for tests and the panel server
//   - [RedisCache]: shared cache for several panel instances
//   - [MongoCache]: document store with a TTL index
//   - [NullCache]: disables persistence
//
// Backends never interpret the bytes they store. Envelope normalisation
// happens above this layer.
//
// # Keys
//
// A [Keyer] turns an API path and its query parameters into a fetch key.
// Identical logical queries map to the same key; see [DefaultKeyer.QueryKey].
// [StorageKey] hashes a fetch key into a backend-safe key.
package cache

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned when an item is not found in cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrClosed is returned when a backend is used after Close.
	ErrClosed = errors.New("cache closed")
)

// Cache is a byte store with optional per-entry expiration.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
