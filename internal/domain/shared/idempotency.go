package shared

import (
	"context"
	"time"
)

// IdempotencyStore records claimed operation keys so that the same operation
// is not executed twice while a claim is live.
type IdempotencyStore interface {
	// Claim marks key as taken for ttl.
	// Returns true if the key was newly claimed, false if a live claim exists.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim so the operation may be attempted again.
	Release(ctx context.Context, key string) error

	// IsClaimed checks if a live claim exists for key
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a claim stays live.
	// Default: 10 minutes
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     10 * time.Minute,
		Enabled: true,
	}
}
