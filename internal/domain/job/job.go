// Package job holds the production job records created from orders.
package job

import (
	"time"

	"github.com/shopspring/decimal"
)

// Job is a unit of production work, usually created from an order
type Job struct {
	ID           string     `json:"id"`
	JobNumber    string     `json:"jobNumber,omitempty"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	CustomerID   string     `json:"customerId,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	OrderID      string     `json:"orderId,omitempty"`
	QuoteID      string     `json:"quoteId,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Draft carries the pre-filled fields of a job about to be created
type Draft struct {
	OrderID      string     `json:"orderId" validate:"required"`
	QuoteID      string     `json:"quoteId,omitempty"`
	Title        string     `json:"title,omitempty"`
	CustomerID   string     `json:"customerId,omitempty"`
	CustomerName string     `json:"customerName,omitempty"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
}

// Cost is a cost entry booked against a job
type Cost struct {
	ID          string
	JobID       string
	Category    string
	Description string
	Amount      decimal.Decimal
	IncurredAt  *time.Time
}

// MaterialUsage records material consumed by a job
type MaterialUsage struct {
	ID         string
	JobID      string
	MaterialID string
	Name       string
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
}

// TotalCost returns Quantity * UnitCost
func (m MaterialUsage) TotalCost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}
