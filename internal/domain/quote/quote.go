package quote

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem represents a line in a quote
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	MaterialID  string // Optional link to a catalog material
}

// Total returns Quantity * UnitPrice
func (i LineItem) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Quote is a versioned offer to a customer.
// Versions of the same offer share a QuoteReference.
type Quote struct {
	ID              string
	QuoteReference  string
	VersionNumber   int
	IsLatestVersion bool
	Status          Status
	Title           string
	CustomerID      string
	CustomerName    string
	JobID           string
	OrderID         string
	LineItems       []LineItem
	TotalAmount     decimal.Decimal // As reported by the backend; not reconciled with LineItems
	ParentQuoteID   string
	ChangeReason    string
	Notes           string
	ValidUntil      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ComputedTotal sums the line totals
func (q *Quote) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range q.LineItems {
		total = total.Add(item.Total())
	}
	return total
}

// DisplayReference returns "<reference> v<version>", falling back to the ID
func (q *Quote) DisplayReference() string {
	if q.QuoteReference == "" {
		return q.ID
	}
	if q.VersionNumber > 0 {
		return fmt.Sprintf("%s v%d", q.QuoteReference, q.VersionNumber)
	}
	return q.QuoteReference
}

// Can checks whether action is allowed in the quote's current status
func (q *Quote) Can(action Action) bool {
	return CanPerform(q.Status, action)
}

// CheckAction returns an INVALID_STATE error if action is not allowed
func (q *Quote) CheckAction(action Action) error {
	if q.Can(action) {
		return nil
	}
	return NewActionError(q, action)
}

// MarkConverted records a conversion performed outside the backend
func (q *Quote) MarkConverted(orderID string) {
	q.Status = StatusConverted
	q.OrderID = orderID
}

// Copy returns a deep copy of the quote
func (q Quote) Copy() Quote {
	if q.LineItems != nil {
		items := make([]LineItem, len(q.LineItems))
		copy(items, q.LineItems)
		q.LineItems = items
	}
	if q.ValidUntil != nil {
		v := *q.ValidUntil
		q.ValidUntil = &v
	}
	return q
}
