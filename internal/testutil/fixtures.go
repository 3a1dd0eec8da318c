// Package testutil builds realistic fixtures for tests.
package testutil

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// Fixtures generates deterministic fake domain objects from a seed
type Fixtures struct {
	faker *gofakeit.Faker
	seq   int
}

// NewFixtures creates a generator. The same seed yields the same objects.
func NewFixtures(seed uint64) *Fixtures {
	return &Fixtures{faker: gofakeit.New(seed)}
}

// Faker exposes the underlying faker
func (f *Fixtures) Faker() *gofakeit.Faker {
	return f.faker
}

// QuoteOption customizes a generated quote
type QuoteOption func(*quote.Quote)

// WithStatus sets the status
func WithStatus(s quote.Status) QuoteOption {
	return func(q *quote.Quote) { q.Status = s }
}

// WithID sets the ID
func WithID(id string) QuoteOption {
	return func(q *quote.Quote) { q.ID = id }
}

// WithReference sets reference and version
func WithReference(ref string, version int) QuoteOption {
	return func(q *quote.Quote) {
		q.QuoteReference = ref
		q.VersionNumber = version
	}
}

// WithItems replaces the line items and recomputes TotalAmount
func WithItems(items ...quote.LineItem) QuoteOption {
	return func(q *quote.Quote) {
		q.LineItems = items
		q.TotalAmount = q.ComputedTotal()
	}
}

// LineItem returns a random line item with whole-cent prices
func (f *Fixtures) LineItem() quote.LineItem {
	return quote.LineItem{
		Description: f.faker.ProductName(),
		Quantity:    decimal.NewFromInt(int64(f.faker.Number(1, 50))),
		UnitPrice:   decimal.NewFromFloat(f.faker.Price(5, 2000)).Round(2),
		MaterialID:  f.faker.UUID(),
	}
}

// Quote returns a random quote, DRAFT unless overridden
func (f *Fixtures) Quote(opts ...QuoteOption) quote.Quote {
	f.seq++
	created := f.faker.DateRange(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	).UTC()

	items := make([]quote.LineItem, f.faker.Number(1, 4))
	for i := range items {
		items[i] = f.LineItem()
	}

	q := quote.Quote{
		ID:              f.faker.UUID(),
		QuoteReference:  fmt.Sprintf("Q-%05d", f.seq),
		VersionNumber:   1,
		IsLatestVersion: true,
		Status:          quote.StatusDraft,
		Title:           f.faker.BuzzWord() + " " + f.faker.ProductName(),
		CustomerID:      f.faker.UUID(),
		CustomerName:    f.faker.Company(),
		LineItems:       items,
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	q.TotalAmount = q.ComputedTotal()

	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Quotes returns n random quotes
func (f *Fixtures) Quotes(n int, opts ...QuoteOption) []quote.Quote {
	out := make([]quote.Quote, n)
	for i := range out {
		out[i] = f.Quote(opts...)
	}
	return out
}

// Form returns a valid editor form for a new quote
func (f *Fixtures) Form() quote.Form {
	q := f.Quote()
	form := quote.FormFromQuote(q)
	form.ID = ""
	return form
}
