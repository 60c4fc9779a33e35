package cache

import (
	"context"
	"time"
)

// Engine names.
const (
	EngineMemory = "memory"
	EngineRedis  = "redis"
)

// Engine is a byte-oriented key/value store with per-key expiry.
type Engine interface {
	// Connect establishes connection to the cache backend
	Connect(ctx context.Context) error

	// Close closes the connection to the cache backend
	Close(ctx context.Context) error

	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with a TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes an item from the cache
	Delete(ctx context.Context, key string) error

	// Flush removes all items from the cache
	Flush(ctx context.Context) error
}
