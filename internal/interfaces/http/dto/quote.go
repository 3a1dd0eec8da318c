package dto

import (
	"time"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/application/smartquote"
	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
)

// LineItemResponse is a quote line
type LineItemResponse struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	MaterialID  string  `json:"materialId,omitempty"`
}

// QuoteResponse is the API form of a quote
type QuoteResponse struct {
	ID              string             `json:"id"`
	QuoteReference  string             `json:"quoteReference"`
	VersionNumber   int                `json:"versionNumber"`
	IsLatestVersion bool               `json:"isLatestVersion"`
	Status          string             `json:"status"`
	StatusLabel     string             `json:"statusLabel"`
	Title           string             `json:"title"`
	CustomerID      string             `json:"customerId"`
	CustomerName    string             `json:"customerName,omitempty"`
	JobID           string             `json:"jobId,omitempty"`
	OrderID         string             `json:"orderId,omitempty"`
	LineItems       []LineItemResponse `json:"lineItems"`
	TotalAmount     float64            `json:"totalAmount"`
	ParentQuoteID   string             `json:"parentQuoteId,omitempty"`
	ChangeReason    string             `json:"changeReason,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	ValidUntil      *time.Time         `json:"validUntil,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	Actions         []quote.Action     `json:"actions"`
}

// ToQuoteResponse converts a domain quote
func ToQuoteResponse(q *quote.Quote) QuoteResponse {
	lines := make([]LineItemResponse, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		lines = append(lines, LineItemResponse{
			Description: li.Description,
			Quantity:    li.Quantity.InexactFloat64(),
			UnitPrice:   li.UnitPrice.InexactFloat64(),
			Total:       li.Total().InexactFloat64(),
			MaterialID:  li.MaterialID,
		})
	}
	actions := quote.AllowedActions(q.Status)
	if actions == nil {
		actions = []quote.Action{}
	}
	return QuoteResponse{
		ID:              q.ID,
		QuoteReference:  q.QuoteReference,
		VersionNumber:   q.VersionNumber,
		IsLatestVersion: q.IsLatestVersion,
		Status:          string(q.Status),
		StatusLabel:     q.Status.Label(),
		Title:           q.Title,
		CustomerID:      q.CustomerID,
		CustomerName:    q.CustomerName,
		JobID:           q.JobID,
		OrderID:         q.OrderID,
		LineItems:       lines,
		TotalAmount:     q.TotalAmount.InexactFloat64(),
		ParentQuoteID:   q.ParentQuoteID,
		ChangeReason:    q.ChangeReason,
		Notes:           q.Notes,
		ValidUntil:      q.ValidUntil,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
		Actions:         actions,
	}
}

// ToOptionalQuoteResponse converts a quote echoed by a write. A write the
// backend accepted without echoing the quote yields nil.
func ToOptionalQuoteResponse(q *quote.Quote) *QuoteResponse {
	if q == nil {
		return nil
	}
	resp := ToQuoteResponse(q)
	return &resp
}

// ToQuoteResponses converts a list of quotes
func ToQuoteResponses(quotes []quote.Quote) []QuoteResponse {
	out := make([]QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, ToQuoteResponse(&quotes[i]))
	}
	return out
}

// ListQuotesRequest holds the list query parameters
type ListQuotesRequest struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Latest bool   `form:"latest"`
}

// Filter converts the query to a domain filter
func (r ListQuotesRequest) Filter() quote.Filter {
	return quote.Filter{
		Status:     quote.Status(r.Status),
		Search:     r.Search,
		LatestOnly: r.Latest,
	}
}

// ConfirmRequest carries the user's confirmation of a destructive action
type ConfirmRequest struct {
	Confirm bool `json:"confirm"`
}

// NewVersionRequest asks for a version form
type NewVersionRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// ActionsResponse lists what can be done with a quote
type ActionsResponse struct {
	QuoteID string         `json:"quoteId"`
	Status  string         `json:"status"`
	Actions []quote.Action `json:"actions"`
}

// ConversionResponse is the outcome of a conversion
type ConversionResponse struct {
	OrderID  string               `json:"orderId,omitempty"`
	Fallback bool                 `json:"fallback"`
	Message  string               `json:"message"`
	Quote    *QuoteResponse       `json:"quote,omitempty"`
	Order    *quote.FallbackOrder `json:"order,omitempty"`
	JobDraft *job.Draft           `json:"jobDraft,omitempty"`
}

// SmartQuoteRequest is the draft a panel makes recommendations for
type SmartQuoteRequest struct {
	CustomerID string               `json:"customerId" binding:"required"`
	Title      string               `json:"title"`
	Items      []quote.FormLineItem `json:"items"`
}

// Input converts the request to panel input
func (r SmartQuoteRequest) Input() smartquote.Input {
	form := quote.Form{LineItems: r.Items}
	return smartquote.Input{
		CustomerID: r.CustomerID,
		Title:      r.Title,
		Items:      form.Items(),
	}
}

// SmartQuoteSelectRequest picks one proposal of a panel
type SmartQuoteSelectRequest struct {
	Draft SmartQuoteRequest `json:"draft"`
	Index *int              `json:"index" binding:"required,min=0"`
}

// PanelResponse is a loaded suggestion panel
type PanelResponse struct {
	Panel     string                `json:"panel"`
	Proposals []smartquote.Proposal `json:"proposals"`
}

// SelectResponse holds the line items to append to the form
type SelectResponse struct {
	Panel string               `json:"panel"`
	Items []quote.FormLineItem `json:"items"`
}

// DocumentResponse describes a generated document
type DocumentResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url,omitempty"`
	Size      int64  `json:"size"`
	PageCount int    `json:"pageCount"`
}

// ToConversionResponse converts a conversion result
func ToConversionResponse(r *quoteapp.ConversionResult) ConversionResponse {
	resp := ConversionResponse{
		OrderID:  r.OrderID,
		Fallback: r.Fallback,
		Message:  r.Message,
		Order:    r.Order,
		JobDraft: r.JobDraft,
	}
	if r.Quote != nil {
		q := ToQuoteResponse(r.Quote)
		resp.Quote = &q
	}
	return resp
}
