package port

import (
	"context"
	"time"
)

// Cache is the advisory key-value cache used to accelerate reads.
// It is never a source of truth: every consumer must be able to fall back to
// the store when a key is missing or the cache backend is down.
// Implementations must be concurrency-safe and context-aware.
//
// Values are stored as strings to keep the port free of serialization
// concerns; callers own the encoding of what they put in.
type Cache interface {
	// Get fetches the value for key. A miss is reported as ("", ErrMiss);
	// a non-nil error other than ErrMiss means a transport or server failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the provided TTL. Zero or negative TTL
	// means no expiration (persist until evicted).
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes one or more keys and returns the number of keys removed.
	// Deleting a key that does not exist is not an error.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// ErrMiss signals a cache miss in a typed way so callers can differentiate
// misses from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
