package localstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/quotedesk/internal/domain/quote"
)

// FallbackOrderPrefix is the key prefix of locally synthesized orders
const FallbackOrderPrefix = "mock_orders/"

// OrderRepository stores fallback orders, one key per order
type OrderRepository struct {
	store Store
}

// NewOrderRepository creates an order repository over store
func NewOrderRepository(store Store) *OrderRepository {
	return &OrderRepository{store: store}
}

var _ quote.FallbackOrderRepository = (*OrderRepository)(nil)

// Put implements quote.FallbackOrderRepository
func (r *OrderRepository) Put(ctx context.Context, order quote.FallbackOrder) error {
	if order.ID == "" {
		return fmt.Errorf("fallback order without id")
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("encoding order %s: %w", order.ID, err)
	}
	return r.store.Put(ctx, FallbackOrderPrefix+order.ID, data)
}

// Get implements quote.FallbackOrderRepository
func (r *OrderRepository) Get(ctx context.Context, id string) (*quote.FallbackOrder, error) {
	data, err := r.store.Get(ctx, FallbackOrderPrefix+id)
	if err != nil {
		return nil, err
	}
	var order quote.FallbackOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("decoding order %s: %w", id, err)
	}
	return &order, nil
}

// List implements quote.FallbackOrderRepository
func (r *OrderRepository) List(ctx context.Context) ([]quote.FallbackOrder, error) {
	entries, err := r.store.List(ctx, FallbackOrderPrefix)
	if err != nil {
		return nil, err
	}

	orders := make([]quote.FallbackOrder, 0, len(entries))
	for _, e := range entries {
		var order quote.FallbackOrder
		if err := json.Unmarshal(e.Value, &order); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", e.Key, err)
		}
		orders = append(orders, order)
	}
	return orders, nil
}
