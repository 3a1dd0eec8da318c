package quote

import (
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FormLineItem is an editable line item
type FormLineItem struct {
	Description string          `json:"description" yaml:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity" validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" yaml:"unitPrice" validate:"gte=0"`
	MaterialID  string          `json:"materialId,omitempty" yaml:"materialId,omitempty"`
}

// MarshalYAML writes amounts as plain YAML numbers with their exact digits
func (li FormLineItem) MarshalYAML() (any, error) {
	return struct {
		Description string     `yaml:"description"`
		Quantity    *yaml.Node `yaml:"quantity"`
		UnitPrice   *yaml.Node `yaml:"unitPrice"`
		MaterialID  string     `yaml:"materialId,omitempty"`
	}{li.Description, yamlNumber(li.Quantity), yamlNumber(li.UnitPrice), li.MaterialID}, nil
}

func yamlNumber(d decimal.Decimal) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: d.String()}
}

// Form is the payload of the quote editor. Whether saving it updates a draft
// in place or creates a new record depends only on ID and ParentQuoteID.
type Form struct {
	ID             string         `json:"id,omitempty" yaml:"id,omitempty"`
	QuoteReference string         `json:"quoteReference,omitempty" yaml:"quoteReference,omitempty"`
	Title          string         `json:"title" yaml:"title" validate:"required,max=200"`
	CustomerID     string         `json:"customerId" yaml:"customerId" validate:"required"`
	CustomerName   string         `json:"customerName,omitempty" yaml:"customerName,omitempty"`
	JobID          string         `json:"jobId,omitempty" yaml:"jobId,omitempty"`
	Status         Status         `json:"status,omitempty" yaml:"status,omitempty"`
	LineItems      []FormLineItem `json:"lineItems" yaml:"lineItems" validate:"required,min=1,dive"`
	ParentQuoteID  string         `json:"parentQuoteId,omitempty" yaml:"parentQuoteId,omitempty"`
	ChangeReason   string         `json:"changeReason,omitempty" yaml:"changeReason,omitempty" validate:"max=1000"`
	Notes          string         `json:"notes,omitempty" yaml:"notes,omitempty"`
	ValidUntil     *time.Time     `json:"validUntil,omitempty" yaml:"validUntil,omitempty"`
}

// IsInPlaceEdit reports whether saving the form should update an existing
// draft (ID set, no parent) rather than create a new quote or version
func (f *Form) IsInPlaceEdit() bool {
	return f.ID != "" && f.ParentQuoteID == ""
}

// Items converts the form lines to domain line items
func (f *Form) Items() []LineItem {
	items := make([]LineItem, 0, len(f.LineItems))
	for _, li := range f.LineItems {
		items = append(items, LineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			MaterialID:  li.MaterialID,
		})
	}
	return items
}

// Total sums the form's line totals
func (f *Form) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range f.Items() {
		total = total.Add(item.Total())
	}
	return total
}

// AppendItems adds line items, e.g. ones picked from a suggestion panel
func (f *Form) AppendItems(items ...LineItem) {
	for _, li := range items {
		f.LineItems = append(f.LineItems, toFormLineItem(li))
	}
}

// FormFromQuote pre-populates an editor form with an existing quote
func FormFromQuote(q Quote) Form {
	lines := make([]FormLineItem, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		lines = append(lines, toFormLineItem(li))
	}

	form := Form{
		ID:             q.ID,
		QuoteReference: q.QuoteReference,
		Title:          q.Title,
		CustomerID:     q.CustomerID,
		CustomerName:   q.CustomerName,
		JobID:          q.JobID,
		Status:         q.Status,
		LineItems:      lines,
		ChangeReason:   q.ChangeReason,
		Notes:          q.Notes,
	}
	if q.ValidUntil != nil {
		v := *q.ValidUntil
		form.ValidUntil = &v
	}
	return form
}

// VersionFormFromQuote pre-populates a form that saves as a new version of q
func VersionFormFromQuote(q Quote, reason string) Form {
	form := FormFromQuote(q)
	form.ID = ""
	form.ParentQuoteID = q.ID
	form.Status = StatusDraft
	form.ChangeReason = reason
	return form
}

func toFormLineItem(li LineItem) FormLineItem {
	return FormLineItem{
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		MaterialID:  li.MaterialID,
	}
}
