// Package smartquote assembles the suggestion panels shown next to the quote
// editor. Each panel fetches recommendations for the current customer and
// draft and turns a chosen proposal into quote line items.
package smartquote

import (
	"context"

	"github.com/erp/quotedesk/internal/domain/intelligence"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// Panel names
const (
	PanelSuggestions = "suggestions"
	PanelBundles     = "bundles"
	PanelTemplates   = "templates"
	PanelHealth      = "health"
)

// Gateway is the customer-intelligence backend
type Gateway interface {
	Suggestions(ctx context.Context, customerID string) ([]intelligence.ProductSuggestion, error)
	Bundles(ctx context.Context, req intelligence.BundleRequest) ([]intelligence.Bundle, error)
	Templates(ctx context.Context, customerID string) ([]intelligence.Template, error)
	QuoteHealth(ctx context.Context, req intelligence.HealthRequest) (*intelligence.HealthReport, error)
}

// Input is the draft the panels make recommendations for
type Input struct {
	CustomerID string
	Title      string
	Items      []quote.LineItem
}

// Proposal is one selectable recommendation. Items is empty for purely
// informational proposals such as health findings.
type Proposal struct {
	Title  string            `json:"title"`
	Detail string            `json:"detail,omitempty"`
	Items  []quote.LineItem  `json:"-"`
	Lines  []ProposalLine    `json:"items"`
	Meta   map[string]string `json:"meta,omitempty"`
}

// ProposalLine is the display form of a proposed line item
type ProposalLine struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	MaterialID  string  `json:"materialId,omitempty"`
}

// Panel is a self-contained fetch and render unit
type Panel interface {
	Name() string
	Load(ctx context.Context, in Input) ([]Proposal, error)
}

func newProposal(title, detail string, items []quote.LineItem) Proposal {
	lines := make([]ProposalLine, 0, len(items))
	for _, li := range items {
		qty, _ := li.Quantity.Float64()
		price, _ := li.UnitPrice.Float64()
		lines = append(lines, ProposalLine{
			Description: li.Description,
			Quantity:    qty,
			UnitPrice:   price,
			MaterialID:  li.MaterialID,
		})
	}
	return Proposal{Title: title, Detail: detail, Items: items, Lines: lines}
}

func fromBundleItems(items []intelligence.BundleItem, discount decimal.Decimal) []quote.LineItem {
	hundred := decimal.NewFromInt(100)
	factor := hundred.Sub(discount).Div(hundred)

	out := make([]quote.LineItem, 0, len(items))
	for _, it := range items {
		price := it.UnitPrice
		if discount.IsPositive() {
			price = price.Mul(factor).Round(2)
		}
		out = append(out, quote.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   price,
			MaterialID:  it.MaterialID,
		})
	}
	return out
}

func toBundleItems(items []quote.LineItem) []intelligence.BundleItem {
	out := make([]intelligence.BundleItem, 0, len(items))
	for _, li := range items {
		out = append(out, intelligence.BundleItem{
			MaterialID:  li.MaterialID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return out
}
