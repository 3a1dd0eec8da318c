package handler

import (
	"context"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/domain/intelligence"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

// MockQuoteService is a mock implementation of QuoteService
type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) Refresh(ctx context.Context) ([]quote.Quote, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteService) List(ctx context.Context, f quote.Filter) ([]quote.Quote, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteService) Get(ctx context.Context, id string) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteService) AllowedActions(ctx context.Context, id string) ([]quote.Action, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Action), args.Error(1)
}

func (m *MockQuoteService) Edit(ctx context.Context, id string) (*quote.Form, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Form), args.Error(1)
}

func (m *MockQuoteService) NewVersion(ctx context.Context, id, reason string) (*quote.Form, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Form), args.Error(1)
}

func (m *MockQuoteService) Save(ctx context.Context, form quote.Form) (*quote.Quote, error) {
	args := m.Called(ctx, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteService) Clone(ctx context.Context, id string) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteService) Convert(ctx context.Context, id string) (*quoteapp.ConversionResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quoteapp.ConversionResult), args.Error(1)
}

func (m *MockQuoteService) LocalOrders(ctx context.Context) ([]quote.FallbackOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.FallbackOrder), args.Error(1)
}

// MockDocumentRenderer is a mock implementation of DocumentRenderer
type MockDocumentRenderer struct {
	mock.Mock
}

func (m *MockDocumentRenderer) RenderQuote(ctx context.Context, q *quote.Quote) (*printing.Document, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.Document), args.Error(1)
}

func (m *MockDocumentRenderer) RenderFallbackOrder(ctx context.Context, o *quote.FallbackOrder) (*printing.Document, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.Document), args.Error(1)
}

// MockIntelligence is a mock implementation of smartquote.Gateway
type MockIntelligence struct {
	mock.Mock
}

func (m *MockIntelligence) Suggestions(ctx context.Context, customerID string) ([]intelligence.ProductSuggestion, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]intelligence.ProductSuggestion), args.Error(1)
}

func (m *MockIntelligence) Bundles(ctx context.Context, req intelligence.BundleRequest) ([]intelligence.Bundle, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]intelligence.Bundle), args.Error(1)
}

func (m *MockIntelligence) Templates(ctx context.Context, customerID string) ([]intelligence.Template, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]intelligence.Template), args.Error(1)
}

func (m *MockIntelligence) QuoteHealth(ctx context.Context, req intelligence.HealthRequest) (*intelligence.HealthReport, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intelligence.HealthReport), args.Error(1)
}
