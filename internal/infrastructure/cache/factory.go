package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory builds the claim store selected by configuration
type IdempotencyStoreFactory struct {
	cfg                   config.IdempotencyConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption configures the factory
type FactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(cfg config.IdempotencyConfig, opts ...FactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns the configured store.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	switch strings.ToLower(f.cfg.Driver) {
	case "", "memory":
		return NewMemoryIdempotencyStore(), nil
	case "redis":
		store, err := NewRedisIdempotencyStore(ctx, RedisOptions{
			Addr:     f.cfg.Redis.Addr(),
			Password: f.cfg.Redis.Password,
			DB:       f.cfg.Redis.DB,
		})
		if err == nil {
			f.logger.Info("Using Redis idempotency store", zap.String("addr", f.cfg.Redis.Addr()))
			return store, nil
		}
		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis idempotency store unavailable: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
			"conversions are only deduplicated within this process",
			zap.Error(err),
		)
		return NewMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency driver %q", f.cfg.Driver)
	}
}
