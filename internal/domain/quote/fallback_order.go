package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// FallbackOrderIDPrefix prefixes the IDs of locally synthesized orders
	FallbackOrderIDPrefix = "mock-order-"
	// FallbackOrderStatus marks an order that never reached the backend
	FallbackOrderStatus = "PENDING_SYNC"
	// FallbackOrderSource identifies where the order came from
	FallbackOrderSource = "local-fallback"
)

// FallbackDefaults are the commercial defaults applied to a synthesized order
type FallbackDefaults struct {
	MarginPercent decimal.Decimal
	LeadTimeWeeks int
	PaymentTerms  string
	DeadlineDays  int
}

// DefaultFallbackDefaults returns 20% margin, 2 weeks lead time, Net 30 and
// a deadline 30 days out
func DefaultFallbackDefaults() FallbackDefaults {
	return FallbackDefaults{
		MarginPercent: decimal.NewFromInt(20),
		LeadTimeWeeks: 2,
		PaymentTerms:  "Net 30",
		DeadlineDays:  30,
	}
}

// FallbackOrderItem is a quote line item carried into a fallback order
type FallbackOrderItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	MaterialID  string          `json:"materialId,omitempty"`
}

// FallbackOrder is an order synthesized on the client when the backend
// conversion endpoint fails. It lives only in the local store.
type FallbackOrder struct {
	ID             string              `json:"id"`
	QuoteID        string              `json:"quoteId"`
	QuoteReference string              `json:"quoteReference"`
	Title          string              `json:"title"`
	CustomerID     string              `json:"customerId"`
	CustomerName   string              `json:"customerName"`
	ProjectValue   decimal.Decimal     `json:"projectValue"`
	Value          decimal.Decimal     `json:"value"`
	MarginPercent  decimal.Decimal     `json:"marginPercent"`
	LeadTimeWeeks  int                 `json:"leadTimeWeeks"`
	PaymentTerms   string              `json:"paymentTerms"`
	Deadline       time.Time           `json:"deadline"`
	Items          []FallbackOrderItem `json:"items"`
	Status         string              `json:"status"`
	Source         string              `json:"source"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// FallbackOrderID builds the client-generated ID for an order created at now.
// The random suffix keeps orders synthesized in the same millisecond apart.
func FallbackOrderID(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", FallbackOrderIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}

// NewFallbackOrder synthesizes a local order from q.
// ProjectValue and Value equal q.TotalAmount and items mirror q.LineItems.
func NewFallbackOrder(q Quote, defaults FallbackDefaults, now time.Time) FallbackOrder {
	items := make([]FallbackOrderItem, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		items = append(items, FallbackOrderItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			MaterialID:  li.MaterialID,
		})
	}

	return FallbackOrder{
		ID:             FallbackOrderID(now),
		QuoteID:        q.ID,
		QuoteReference: q.QuoteReference,
		Title:          q.Title,
		CustomerID:     q.CustomerID,
		CustomerName:   q.CustomerName,
		ProjectValue:   q.TotalAmount,
		Value:          q.TotalAmount,
		MarginPercent:  defaults.MarginPercent,
		LeadTimeWeeks:  defaults.LeadTimeWeeks,
		PaymentTerms:   defaults.PaymentTerms,
		Deadline:       now.AddDate(0, 0, defaults.DeadlineDays),
		Items:          items,
		Status:         FallbackOrderStatus,
		Source:         FallbackOrderSource,
		CreatedAt:      now,
	}
}

// EstimatedCost returns Value reduced by the margin
func (o FallbackOrder) EstimatedCost() decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return o.Value.Mul(hundred.Sub(o.MarginPercent)).Div(hundred)
}

// FallbackOrderRepository persists fallback orders on the client
type FallbackOrderRepository interface {
	// Put stores the order, replacing any order with the same ID
	Put(ctx context.Context, order FallbackOrder) error
	// Get returns the order with id, or shared.ErrNotFound
	Get(ctx context.Context, id string) (*FallbackOrder, error)
	// List returns all orders ordered by ID
	List(ctx context.Context) ([]FallbackOrder, error)
}
