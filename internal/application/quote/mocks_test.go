package quote

import (
	"context"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/stretchr/testify/mock"
)

// MockQuoteGateway is a mock implementation of QuoteGateway
type MockQuoteGateway struct {
	mock.Mock
}

func (m *MockQuoteGateway) List(ctx context.Context) ([]quote.Quote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteGateway) Create(ctx context.Context, form quote.Form) (*quote.Quote, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteGateway) Update(ctx context.Context, id string, form quote.Form) (*quote.Quote, error) {
	args := m.Called(ctx, id, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteGateway) Clone(ctx context.Context, id string) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

// MockOrderGateway is a mock implementation of OrderGateway
type MockOrderGateway struct {
	mock.Mock
}

func (m *MockOrderGateway) FromQuote(ctx context.Context, quoteID string) (quote.OrderRef, error) {
	args := m.Called(ctx, quoteID)
	return args.Get(0).(quote.OrderRef), args.Error(1)
}

// MockJobGateway is a mock implementation of JobGateway
type MockJobGateway struct {
	mock.Mock
}

func (m *MockJobGateway) Create(ctx context.Context, draft job.Draft) (*job.Job, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

// MockOrderRepository is a mock implementation of quote.FallbackOrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Put(ctx context.Context, order quote.FallbackOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id string) (*quote.FallbackOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.FallbackOrder), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context) ([]quote.FallbackOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.FallbackOrder), args.Error(1)
}
