package localstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// storeFactories opens each Store implementation for the shared tests
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"badger": func() Store {
			s, err := OpenBadgerInMemory(zap.NewNop())
			require.NoError(t, err)
			return s
		},
		"sqlite": func() Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"), zap.NewNop(), "error")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_Contract(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()
			ctx := context.Background()

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, shared.ErrNotFound)

			require.NoError(t, s.Put(ctx, "mock_orders/b", []byte("2")))
			require.NoError(t, s.Put(ctx, "mock_orders/a", []byte("1")))
			require.NoError(t, s.Put(ctx, "mock_orders_x", []byte("x")))
			require.NoError(t, s.Put(ctx, "token", []byte("t")))

			v, err := s.Get(ctx, "mock_orders/a")
			require.NoError(t, err)
			assert.Equal(t, []byte("1"), v)

			require.NoError(t, s.Put(ctx, "mock_orders/a", []byte("1b")))
			v, err = s.Get(ctx, "mock_orders/a")
			require.NoError(t, err)
			assert.Equal(t, []byte("1b"), v)

			entries, err := s.List(ctx, "mock_orders/")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "mock_orders/a", entries[0].Key)
			assert.Equal(t, "mock_orders/b", entries[1].Key)

			require.NoError(t, s.Delete(ctx, "mock_orders/a"))
			require.NoError(t, s.Delete(ctx, "never-existed"))
			_, err = s.Get(ctx, "mock_orders/a")
			assert.ErrorIs(t, err, shared.ErrNotFound)

			empty, err := s.List(ctx, "nothing/")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)
		})
	}
}

func TestStore_ConcurrentWritersKeepEveryKey(t *testing.T) {
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()
			ctx := context.Background()

			const writers = 20
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, s.Put(ctx, fmt.Sprintf("mock_orders/%02d", i), []byte("{}")))
				}(i)
			}
			wg.Wait()

			entries, err := s.List(ctx, "mock_orders/")
			require.NoError(t, err)
			assert.Len(t, entries, writers)
		})
	}
}

func TestBadgerStore_ReopenKeepsValues(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "mock_orders/a", []byte("1")))
	require.NoError(t, s.Put(ctx, "mock_orders/b", []byte("2")))
	require.NoError(t, s.Delete(ctx, "mock_orders/b"))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	v, err := s.Get(ctx, "mock_orders/a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
	_, err = s.Get(ctx, "mock_orders/b")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "mock_orders/a", all[0].Key)
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(NewMemoryStore())
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	q := quote.Quote{
		ID:             "q1",
		QuoteReference: "Q-100",
		Title:          "Frame",
		TotalAmount:    decimal.NewFromInt(1200),
		LineItems: []quote.LineItem{
			{Description: "Widget", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(600)},
		},
	}
	first := quote.NewFallbackOrder(q, quote.DefaultFallbackDefaults(), now)
	second := quote.NewFallbackOrder(q, quote.DefaultFallbackDefaults(), now.Add(time.Millisecond))

	require.NoError(t, repo.Put(ctx, first))
	require.NoError(t, repo.Put(ctx, second))

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "q1", got.QuoteID)
	assert.True(t, decimal.NewFromInt(1200).Equal(got.ProjectValue))
	assert.True(t, now.Equal(got.CreatedAt))
	require.Len(t, got.Items, 1)
	assert.True(t, decimal.NewFromInt(600).Equal(got.Items[0].UnitPrice))

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, first.ID, orders[0].ID)
	assert.Equal(t, second.ID, orders[1].ID)

	_, err = repo.Get(ctx, "mock-order-0")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.Error(t, repo.Put(ctx, quote.FallbackOrder{}))
}

func TestTokenStore(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokenStore(NewMemoryStore())

	tok, err := tokens.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, tokens.Save(ctx, "abc"))
	tok, err = tokens.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, tokens.Clear(ctx))
	tok, err = tokens.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Driver: "memory"}, false},
		{"badger", config.StoreConfig{Driver: "badger", Path: filepath.Join(dir, "badger")}, false},
		{"sqlite", config.StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "sqlite", "q.db")}, false},
		{"unknown", config.StoreConfig{Driver: "bolt"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg, "error", zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}
