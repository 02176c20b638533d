package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already handled.
// Keys are event IDs for event handlers and Idempotency-Key header values
// for HTTP writes.
type IdempotencyStore interface {
	// MarkProcessed records the key with a TTL.
	// Returns true if the key was newly marked, false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the key is present and unexpired
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release removes a key so the operation may be retried
	Release(ctx context.Context, key string) error

	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns a 24h TTL, enabled configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
