//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisIdempotencyStore_Integration(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	store, err := NewRedisIdempotencyStore(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	defer store.Close()

	t.Run("claim is exclusive", func(t *testing.T) {
		ok, err := store.Claim(ctx, "convert:q-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "convert:q-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		claimed, err := store.IsClaimed(ctx, "convert:q-1")
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("release frees the key", func(t *testing.T) {
		_, err := store.Claim(ctx, "convert:q-2", time.Minute)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, "convert:q-2"))

		claimed, err := store.IsClaimed(ctx, "convert:q-2")
		require.NoError(t, err)
		assert.False(t, claimed)
	})

	t.Run("keys carry the prefix and ttl", func(t *testing.T) {
		_, err := store.Claim(ctx, "convert:q-3", time.Minute)
		require.NoError(t, err)

		ttl, err := store.Client().TTL(ctx, DefaultKeyPrefix+"convert:q-3").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})

	t.Run("claims are shared across stores", func(t *testing.T) {
		other, err := NewRedisIdempotencyStore(ctx, RedisOptions{Addr: addr})
		require.NoError(t, err)
		defer other.Close()

		_, err = store.Claim(ctx, "convert:q-4", time.Minute)
		require.NoError(t, err)

		ok, err := other.Claim(ctx, "convert:q-4", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
