package quote

import (
	"context"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
)

// QuoteGateway is the remote quote resource
type QuoteGateway interface {
	List(ctx context.Context) ([]quote.Quote, error)
	Create(ctx context.Context, form quote.Form) (*quote.Quote, error)
	Update(ctx context.Context, id string, form quote.Form) (*quote.Quote, error)
	Clone(ctx context.Context, id string) (*quote.Quote, error)
}

// OrderGateway converts quotes into orders on the backend
type OrderGateway interface {
	FromQuote(ctx context.Context, quoteID string) (quote.OrderRef, error)
}

// JobGateway creates production jobs
type JobGateway interface {
	Create(ctx context.Context, draft job.Draft) (*job.Job, error)
}
