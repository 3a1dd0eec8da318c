package smartquote

import (
	"context"
	"fmt"
	"strconv"

	"github.com/erp/quotedesk/internal/domain/intelligence"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/shopspring/decimal"
)

// SuggestionsPanel proposes products the customer ordered before
type SuggestionsPanel struct {
	gw Gateway
}

// NewSuggestionsPanel creates the suggestions panel
func NewSuggestionsPanel(gw Gateway) *SuggestionsPanel {
	return &SuggestionsPanel{gw: gw}
}

// Name implements Panel
func (p *SuggestionsPanel) Name() string { return PanelSuggestions }

// Load implements Panel
func (p *SuggestionsPanel) Load(ctx context.Context, in Input) ([]Proposal, error) {
	suggestions, err := p.gw.Suggestions(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	out := make([]Proposal, 0, len(suggestions))
	for _, s := range suggestions {
		item := quote.LineItem{
			Description: s.Description,
			Quantity:    s.Quantity,
			UnitPrice:   s.UnitPrice,
			MaterialID:  s.MaterialID,
		}
		prop := newProposal(s.Description, s.Reason, []quote.LineItem{item})
		prop.Meta = map[string]string{"confidence": strconv.Itoa(int(s.Confidence*100+0.5)) + "%"}
		out = append(out, prop)
	}
	return out, nil
}

// BundlesPanel proposes product bundles that complement the draft
type BundlesPanel struct {
	gw Gateway
}

// NewBundlesPanel creates the bundles panel
func NewBundlesPanel(gw Gateway) *BundlesPanel {
	return &BundlesPanel{gw: gw}
}

// Name implements Panel
func (p *BundlesPanel) Name() string { return PanelBundles }

// Load implements Panel. Bundle discounts are applied to the proposed unit
// prices.
func (p *BundlesPanel) Load(ctx context.Context, in Input) ([]Proposal, error) {
	bundles, err := p.gw.Bundles(ctx, intelligence.BundleRequest{
		CustomerID:  in.CustomerID,
		MaterialIDs: materialIDs(in.Items),
	})
	if err != nil {
		return nil, err
	}

	out := make([]Proposal, 0, len(bundles))
	for _, b := range bundles {
		prop := newProposal(b.Name, b.Description, fromBundleItems(b.Items, b.Discount))
		if b.Discount.IsPositive() {
			prop.Meta = map[string]string{"discount": b.Discount.String() + "%"}
		}
		out = append(out, prop)
	}
	return out, nil
}

// TemplatesPanel proposes quick-assembly templates
type TemplatesPanel struct {
	gw Gateway
}

// NewTemplatesPanel creates the templates panel
func NewTemplatesPanel(gw Gateway) *TemplatesPanel {
	return &TemplatesPanel{gw: gw}
}

// Name implements Panel
func (p *TemplatesPanel) Name() string { return PanelTemplates }

// Load implements Panel
func (p *TemplatesPanel) Load(ctx context.Context, in Input) ([]Proposal, error) {
	templates, err := p.gw.Templates(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}

	out := make([]Proposal, 0, len(templates))
	for _, tpl := range templates {
		prop := newProposal(tpl.Name, tpl.Description, fromBundleItems(tpl.Items, decimal.Zero))
		prop.Meta = map[string]string{"usage": fmt.Sprintf("used %d times", tpl.UsageCount)}
		out = append(out, prop)
	}
	return out, nil
}

// HealthPanel scores the draft. Its proposals are findings and carry no
// line items.
type HealthPanel struct {
	gw Gateway
}

// NewHealthPanel creates the quote health panel
func NewHealthPanel(gw Gateway) *HealthPanel {
	return &HealthPanel{gw: gw}
}

// Name implements Panel
func (p *HealthPanel) Name() string { return PanelHealth }

// Load implements Panel. The first proposal carries the overall score.
func (p *HealthPanel) Load(ctx context.Context, in Input) ([]Proposal, error) {
	total := decimal.Zero
	for _, li := range in.Items {
		total = total.Add(li.Total())
	}

	report, err := p.gw.QuoteHealth(ctx, intelligence.HealthRequest{
		CustomerID: in.CustomerID,
		Title:      in.Title,
		Items:      toBundleItems(in.Items),
		Total:      total,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Proposal, 0, 1+len(report.Issues)+len(report.Recommendations))
	score := newProposal(fmt.Sprintf("Health score %d/100", report.Score), "", nil)
	score.Meta = map[string]string{"score": strconv.Itoa(report.Score)}
	out = append(out, score)

	for _, issue := range report.Issues {
		prop := newProposal(issue.Message, issue.Field, nil)
		prop.Meta = map[string]string{"severity": issue.Severity}
		out = append(out, prop)
	}
	for _, rec := range report.Recommendations {
		out = append(out, newProposal(rec, "recommendation", nil))
	}
	return out, nil
}

func materialIDs(items []quote.LineItem) []string {
	seen := make(map[string]bool, len(items))
	var ids []string
	for _, li := range items {
		if li.MaterialID == "" || seen[li.MaterialID] {
			continue
		}
		seen[li.MaterialID] = true
		ids = append(ids, li.MaterialID)
	}
	return ids
}
