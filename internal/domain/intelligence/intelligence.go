// Package intelligence holds the customer-intelligence records that feed the
// smart quote builder.
package intelligence

import "github.com/shopspring/decimal"

// ProductSuggestion is a product the customer is likely to order
type ProductSuggestion struct {
	MaterialID  string
	Description string
	Reason      string
	Confidence  float64
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// BundleItem is one line of a recommended bundle
type BundleItem struct {
	MaterialID  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Bundle is a set of products commonly ordered together
type Bundle struct {
	ID          string
	Name        string
	Description string
	Discount    decimal.Decimal // percent
	Items       []BundleItem
}

// Template is a reusable quote skeleton
type Template struct {
	ID          string
	Name        string
	Description string
	UsageCount  int
	Items       []BundleItem
}

// HealthIssue is one finding of a quote health check
type HealthIssue struct {
	Severity string
	Message  string
	Field    string
}

// HealthReport scores a draft quote
type HealthReport struct {
	Score           int
	Issues          []HealthIssue
	Recommendations []string
}

// HealthRequest is the draft sent for a health check
type HealthRequest struct {
	CustomerID string
	Title      string
	Items      []BundleItem
	Total      decimal.Decimal
}

// BundleRequest asks for bundles matching the current draft
type BundleRequest struct {
	CustomerID  string
	MaterialIDs []string
}
