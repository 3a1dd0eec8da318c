package printing

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageFooter is the Chrome footer template; the classes are filled in by Chrome
const pageFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#666;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// DocumentBuilder turns domain objects into printable HTML
type DocumentBuilder struct {
	templates *template.Template
	printer   *message.Printer
	currency  string
}

// DocumentOption configures a DocumentBuilder
type DocumentOption func(*DocumentBuilder)

// WithCurrency sets the currency symbol prefixed to amounts
func WithCurrency(symbol string) DocumentOption {
	return func(b *DocumentBuilder) {
		b.currency = symbol
	}
}

// WithLanguage sets the locale used for number grouping
func WithLanguage(tag language.Tag) DocumentOption {
	return func(b *DocumentBuilder) {
		b.printer = message.NewPrinter(tag)
	}
}

// NewDocumentBuilder parses the embedded document templates
func NewDocumentBuilder(opts ...DocumentOption) (*DocumentBuilder, error) {
	b := &DocumentBuilder{
		printer:  message.NewPrinter(language.English),
		currency: "$",
	}
	for _, opt := range opts {
		opt(b)
	}

	funcs := template.FuncMap{
		"money": b.money,
		"date":  formatDate,
	}
	tmpl, err := template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse document templates", err)
	}
	b.templates = tmpl
	return b, nil
}

type quoteLine struct {
	Description string
	Quantity    string
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

type quoteView struct {
	Reference    string
	Title        string
	Status       string
	CustomerName string
	CustomerID   string
	ChangeReason string
	Notes        string
	ValidUntil   *time.Time
	CreatedAt    time.Time
	Lines        []quoteLine
	Total        decimal.Decimal
}

type orderView struct {
	ID             string
	QuoteReference string
	Title          string
	CustomerName   string
	CustomerID     string
	Value          decimal.Decimal
	EstimatedCost  decimal.Decimal
	MarginPercent  string
	LeadTimeWeeks  int
	PaymentTerms   string
	Deadline       time.Time
	CreatedAt      time.Time
	Lines          []quoteLine
}

// QuoteHTML renders a quote document
func (b *DocumentBuilder) QuoteHTML(q *quote.Quote) (string, error) {
	if q == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "quote is nil", nil)
	}

	lines := make([]quoteLine, 0, len(q.LineItems))
	for _, li := range q.LineItems {
		lines = append(lines, quoteLine{
			Description: li.Description,
			Quantity:    li.Quantity.String(),
			UnitPrice:   li.UnitPrice,
			Total:       li.Total(),
		})
	}

	return b.execute("quote.html", quoteView{
		Reference:    q.DisplayReference(),
		Title:        q.Title,
		Status:       q.Status.Label(),
		CustomerName: q.CustomerName,
		CustomerID:   q.CustomerID,
		ChangeReason: q.ChangeReason,
		Notes:        q.Notes,
		ValidUntil:   q.ValidUntil,
		CreatedAt:    q.CreatedAt,
		Lines:        lines,
		Total:        q.TotalAmount,
	})
}

// OrderHTML renders a locally stored fallback order
func (b *DocumentBuilder) OrderHTML(o *quote.FallbackOrder) (string, error) {
	if o == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "order is nil", nil)
	}

	lines := make([]quoteLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, quoteLine{
			Description: it.Description,
			Quantity:    it.Quantity.String(),
			UnitPrice:   it.UnitPrice,
			Total:       it.Quantity.Mul(it.UnitPrice),
		})
	}

	return b.execute("order.html", orderView{
		ID:             o.ID,
		QuoteReference: o.QuoteReference,
		Title:          o.Title,
		CustomerName:   o.CustomerName,
		CustomerID:     o.CustomerID,
		Value:          o.Value,
		EstimatedCost:  o.EstimatedCost(),
		MarginPercent:  o.MarginPercent.String(),
		LeadTimeWeeks:  o.LeadTimeWeeks,
		PaymentTerms:   o.PaymentTerms,
		Deadline:       o.Deadline,
		CreatedAt:      o.CreatedAt,
		Lines:          lines,
	})
}

func (b *DocumentBuilder) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := b.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeTemplateFailed, "failed to execute template "+name, err)
	}
	return buf.String(), nil
}

func (b *DocumentBuilder) money(d decimal.Decimal) string {
	return b.currency + b.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func formatDate(t any) string {
	switch v := t.(type) {
	case time.Time:
		if v.IsZero() {
			return "-"
		}
		return v.Format("2006-01-02")
	case *time.Time:
		if v == nil || v.IsZero() {
			return "-"
		}
		return v.Format("2006-01-02")
	default:
		return "-"
	}
}
