package api

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type lineItemWire struct {
	Description looseString `json:"description"`
	Quantity    looseFloat  `json:"quantity"`
	UnitPrice   looseFloat  `json:"unitPrice"`
	MaterialID  looseString `json:"materialId"`
}

type quoteWire struct {
	ID              looseString    `json:"id"`
	QuoteReference  looseString    `json:"quoteReference"`
	VersionNumber   looseFloat     `json:"versionNumber"`
	IsLatestVersion *bool          `json:"isLatestVersion"`
	Status          looseString    `json:"status"`
	Title           looseString    `json:"title"`
	CustomerID      looseString    `json:"customerId"`
	CustomerName    looseString    `json:"customerName"`
	Customer        *customerWire  `json:"customer"`
	JobID           looseString    `json:"jobId"`
	OrderID         looseString    `json:"orderId"`
	LineItems       []lineItemWire `json:"lineItems"`
	TotalAmount     looseFloat     `json:"totalAmount"`
	ParentQuoteID   looseString    `json:"parentQuoteId"`
	ChangeReason    looseString    `json:"changeReason"`
	Notes           looseString    `json:"notes"`
	ValidUntil      looseTime      `json:"validUntil"`
	CreatedAt       looseTime      `json:"createdAt"`
	UpdatedAt       looseTime      `json:"updatedAt"`
}

func (w quoteWire) toDomain() quote.Quote {
	q := quote.Quote{
		ID:              string(w.ID),
		QuoteReference:  string(w.QuoteReference),
		VersionNumber:   int(w.VersionNumber),
		IsLatestVersion: true,
		Status:          quote.ParseStatus(string(w.Status)),
		Title:           string(w.Title),
		CustomerID:      string(w.CustomerID),
		CustomerName:    string(w.CustomerName),
		JobID:           string(w.JobID),
		OrderID:         string(w.OrderID),
		LineItems:       make([]quote.LineItem, 0, len(w.LineItems)),
		TotalAmount:     w.TotalAmount.decimal(),
		ParentQuoteID:   string(w.ParentQuoteID),
		ChangeReason:    string(w.ChangeReason),
		Notes:           string(w.Notes),
		ValidUntil:      w.ValidUntil.ptr(),
		CreatedAt:       w.CreatedAt.Time,
		UpdatedAt:       w.UpdatedAt.Time,
	}
	if w.IsLatestVersion != nil {
		q.IsLatestVersion = *w.IsLatestVersion
	}
	if q.CustomerName == "" && w.Customer != nil {
		q.CustomerName = string(w.Customer.Name)
		if q.CustomerID == "" {
			q.CustomerID = string(w.Customer.ID)
		}
	}
	for _, li := range w.LineItems {
		q.LineItems = append(q.LineItems, quote.LineItem{
			Description: string(li.Description),
			Quantity:    li.Quantity.decimal(),
			UnitPrice:   li.UnitPrice.decimal(),
			MaterialID:  string(li.MaterialID),
		})
	}
	return q
}

type lineItemPayload struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	MaterialID  string  `json:"materialId,omitempty"`
}

type quotePayload struct {
	Title          string            `json:"title"`
	CustomerID     string            `json:"customerId"`
	CustomerName   string            `json:"customerName,omitempty"`
	JobID          string            `json:"jobId,omitempty"`
	Status         string            `json:"status,omitempty"`
	QuoteReference string            `json:"quoteReference,omitempty"`
	LineItems      []lineItemPayload `json:"lineItems"`
	TotalAmount    float64           `json:"totalAmount"`
	ParentQuoteID  string            `json:"parentQuoteId,omitempty"`
	ChangeReason   string            `json:"changeReason,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	ValidUntil     *time.Time        `json:"validUntil,omitempty"`
}

func newQuotePayload(form quote.Form) quotePayload {
	p := quotePayload{
		Title:          form.Title,
		CustomerID:     form.CustomerID,
		CustomerName:   form.CustomerName,
		JobID:          form.JobID,
		Status:         string(form.Status),
		QuoteReference: form.QuoteReference,
		LineItems:      make([]lineItemPayload, 0, len(form.LineItems)),
		TotalAmount:    money(form.Total()),
		ParentQuoteID:  form.ParentQuoteID,
		ChangeReason:   form.ChangeReason,
		Notes:          form.Notes,
		ValidUntil:     form.ValidUntil,
	}
	for _, li := range form.LineItems {
		p.LineItems = append(p.LineItems, lineItemPayload{
			Description: li.Description,
			Quantity:    money(li.Quantity),
			UnitPrice:   money(li.UnitPrice),
			MaterialID:  li.MaterialID,
		})
	}
	return p
}

// QuotesAPI covers the /quotes endpoints
type QuotesAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewQuotesAPI creates the quotes module
func NewQuotesAPI(client *httpclient.Client, logger *zap.Logger) *QuotesAPI {
	return &QuotesAPI{client: client, logger: logger}
}

// List fetches every quote version. Unrecognized response shapes and
// malformed entries are logged and skipped.
func (a *QuotesAPI) List(ctx context.Context) ([]quote.Quote, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: "GET",
		Path:   "/quotes",
		Query:  url.Values{"all": {"true"}},
	})
	if err != nil {
		return nil, err
	}

	wires, err := DecodeList[quoteWire](resp.Body, QuoteListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Quote list response was not fully understood", zap.Error(err))
	}
	quotes := make([]quote.Quote, 0, len(wires))
	for _, w := range wires {
		quotes = append(quotes, w.toDomain())
	}
	return quotes, nil
}

// Get fetches a single quote
func (a *QuotesAPI) Get(ctx context.Context, id string) (*quote.Quote, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "GET",
		Path:     "/quotes/" + url.PathEscape(id),
		Endpoint: "/quotes/:id",
	})
	if err != nil {
		return nil, err
	}
	return decodeQuote(resp.Body)
}

// Create posts a new quote or a new version of an existing one
func (a *QuotesAPI) Create(ctx context.Context, form quote.Form) (*quote.Quote, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: "POST",
		Path:   "/quotes",
		Body:   newQuotePayload(form),
	})
	if err != nil {
		return nil, err
	}
	return a.optionalQuote(ctx, resp.Body), nil
}

// Update patches an existing quote in place
func (a *QuotesAPI) Update(ctx context.Context, id string, form quote.Form) (*quote.Quote, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "PATCH",
		Path:     "/quotes/" + url.PathEscape(id),
		Endpoint: "/quotes/:id",
		Body:     newQuotePayload(form),
	})
	if err != nil {
		return nil, err
	}
	return a.optionalQuote(ctx, resp.Body), nil
}

// Clone asks the backend to copy a quote into a new draft
func (a *QuotesAPI) Clone(ctx context.Context, id string) (*quote.Quote, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "POST",
		Path:     "/quotes/" + url.PathEscape(id) + "/clone",
		Endpoint: "/quotes/:id/clone",
	})
	if err != nil {
		return nil, err
	}
	return a.optionalQuote(ctx, resp.Body), nil
}

// optionalQuote decodes the quote echoed by a write. A write that succeeded
// without echoing a quote yields nil.
func (a *QuotesAPI) optionalQuote(ctx context.Context, body []byte) *quote.Quote {
	q, err := decodeQuote(body)
	if err != nil {
		logger.Bind(ctx, a.logger).Debug("Write response carried no quote", zap.Error(err))
		return nil
	}
	return q
}

func decodeQuote(body []byte) (*quote.Quote, error) {
	w, err := DecodeObject[quoteWire](body, QuoteObjectPath...)
	if err != nil {
		return nil, err
	}
	if w.ID == "" {
		return nil, errors.New("quote without id")
	}
	q := w.toDomain()
	return &q, nil
}
