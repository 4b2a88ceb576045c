package shared

import (
	"context"
	"time"
)

// ReportCache stores serialized report payloads keyed by report parameters.
// Implementations must treat a missing key as a cache miss, not an error.
type ReportCache interface {
	// Get returns the cached payload for the key.
	// The second return value is false on a cache miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the payload under the key with the given TTL.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// InvalidatePrefix removes every cached entry whose key starts with prefix.
	InvalidatePrefix(ctx context.Context, prefix string) error

	// Close releases any resources held by the cache.
	Close() error
}
