package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// unreachableRedis points at a port nothing listens on
func unreachableRedis() config.IdempotencyConfig {
	return config.IdempotencyConfig{
		Driver: "redis",
		TTL:    time.Minute,
		Redis:  config.RedisConfig{Host: "127.0.0.1", Port: 1},
	}
}

func TestFactory_MemoryDriver(t *testing.T) {
	for _, driver := range []string{"", "memory", "MEMORY"} {
		t.Run("driver "+driver, func(t *testing.T) {
			f := NewIdempotencyStoreFactory(config.IdempotencyConfig{Driver: driver})
			store, err := f.CreateStore(context.Background())
			require.NoError(t, err)
			defer store.Close()

			_, ok := store.(*MemoryIdempotencyStore)
			assert.True(t, ok)
		})
	}
}

func TestFactory_RedisFallsBackToMemory(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	f := NewIdempotencyStoreFactory(unreachableRedis(), WithLogger(zap.New(core)))

	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*MemoryIdempotencyStore)
	assert.True(t, ok)
	assert.Equal(t, 1, logs.Len())
}

func TestFactory_RedisRequired(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis(), WithInMemoryFallback(false))

	store, err := f.CreateStore(context.Background())
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestFactory_UnknownDriver(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.IdempotencyConfig{Driver: "etcd"})

	_, err := f.CreateStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}
