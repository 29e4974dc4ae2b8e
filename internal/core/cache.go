package core

import (
	"context"
	"time"
)

// CacheRepository is a shared key/value store with expiry. The board uses it
// to share snapshots between replicas and as a refresh lock.
type CacheRepository interface {
	// Set stores value under key. A zero TTL never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil without an error when the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	// SetIfNotExists atomically sets key only if it is absent and reports whether it was set.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	Health(ctx context.Context) error
}
