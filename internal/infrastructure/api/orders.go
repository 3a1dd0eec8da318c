package api

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OrdersAPI covers the /orders endpoints
type OrdersAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewOrdersAPI creates the orders module
func NewOrdersAPI(client *httpclient.Client, logger *zap.Logger) *OrdersAPI {
	return &OrdersAPI{client: client, logger: logger}
}

// FromQuote converts an approved quote into an order
func (a *OrdersAPI) FromQuote(ctx context.Context, quoteID string) (quote.OrderRef, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "POST",
		Path:     "/orders/from-quote/" + url.PathEscape(quoteID),
		Endpoint: "/orders/from-quote/:id",
	})
	if err != nil {
		return quote.OrderRef{}, err
	}

	ref := quote.OrderRef{Raw: json.RawMessage(resp.Body)}
	if id, ok := ExtractString(resp.Body, OrderIDPaths...); ok {
		ref.ID = id
	} else {
		logger.Bind(ctx, a.logger).Warn("Conversion response carried no order id",
			zap.String("quote_id", quoteID),
		)
	}
	return ref, nil
}
