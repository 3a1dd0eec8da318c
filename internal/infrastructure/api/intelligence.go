package api

import (
	"context"
	"net/url"

	"github.com/erp/quotedesk/internal/domain/intelligence"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type suggestionWire struct {
	MaterialID  looseString `json:"materialId"`
	ProductID   looseString `json:"productId"`
	Description string      `json:"description"`
	Name        string      `json:"name"`
	Reason      string      `json:"reason"`
	Confidence  looseFloat  `json:"confidence"`
	Quantity    looseFloat  `json:"suggestedQuantity"`
	UnitPrice   looseFloat  `json:"unitPrice"`
}

type bundleItemWire struct {
	MaterialID  looseString `json:"materialId"`
	Description string      `json:"description"`
	Name        string      `json:"name"`
	Quantity    looseFloat  `json:"quantity"`
	UnitPrice   looseFloat  `json:"unitPrice"`
}

type bundleWire struct {
	ID          looseString      `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Discount    looseFloat       `json:"discountPercent"`
	Items       []bundleItemWire `json:"items"`
}

type templateWire struct {
	ID          looseString      `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	UsageCount  looseFloat       `json:"usageCount"`
	Items       []bundleItemWire `json:"lineItems"`
}

type healthWire struct {
	Score  looseFloat `json:"score"`
	Issues []struct {
		Severity string `json:"severity"`
		Message  string `json:"message"`
		Field    string `json:"field"`
	} `json:"issues"`
	Recommendations []string `json:"recommendations"`
}

type bundleItemPayload struct {
	MaterialID  string  `json:"materialId,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// IntelligenceAPI covers the /customer-intelligence endpoints
type IntelligenceAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewIntelligenceAPI creates the customer intelligence module
func NewIntelligenceAPI(client *httpclient.Client, logger *zap.Logger) *IntelligenceAPI {
	return &IntelligenceAPI{client: client, logger: logger}
}

// Suggestions fetches product suggestions for a customer
func (a *IntelligenceAPI) Suggestions(ctx context.Context, customerID string) ([]intelligence.ProductSuggestion, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{
		Method:   "GET",
		Path:     "/customer-intelligence/customers/" + url.PathEscape(customerID) + "/suggestions",
		Endpoint: "/customer-intelligence/customers/:id/suggestions",
	})
	if err != nil {
		return nil, err
	}

	wires, err := DecodeList[suggestionWire](resp.Body, SuggestionListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Suggestion response was not fully understood", zap.Error(err))
	}
	out := make([]intelligence.ProductSuggestion, 0, len(wires))
	for _, w := range wires {
		id := w.MaterialID
		if id == "" {
			id = w.ProductID
		}
		desc := w.Description
		if desc == "" {
			desc = w.Name
		}
		qty := w.Quantity
		if qty <= 0 {
			qty = 1
		}
		out = append(out, intelligence.ProductSuggestion{
			MaterialID:  string(id),
			Description: desc,
			Reason:      w.Reason,
			Confidence:  float64(w.Confidence),
			Quantity:    qty.decimal(),
			UnitPrice:   w.UnitPrice.decimal(),
		})
	}
	return out, nil
}

// Bundles fetches bundle recommendations for the draft's materials
func (a *IntelligenceAPI) Bundles(ctx context.Context, req intelligence.BundleRequest) ([]intelligence.Bundle, error) {
	materialIDs := req.MaterialIDs
	if materialIDs == nil {
		materialIDs = []string{}
	}
	resp, err := a.client.Post(ctx, "/customer-intelligence/bundles/recommendations", map[string]any{
		"customerId":  req.CustomerID,
		"materialIds": materialIDs,
	})
	if err != nil {
		return nil, err
	}

	wires, err := DecodeList[bundleWire](resp.Body, BundleListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Bundle response was not fully understood", zap.Error(err))
	}
	out := make([]intelligence.Bundle, 0, len(wires))
	for _, w := range wires {
		out = append(out, intelligence.Bundle{
			ID:          string(w.ID),
			Name:        w.Name,
			Description: w.Description,
			Discount:    w.Discount.decimal(),
			Items:       bundleItems(w.Items),
		})
	}
	return out, nil
}

// Templates fetches quote templates, optionally scoped to a customer
func (a *IntelligenceAPI) Templates(ctx context.Context, customerID string) ([]intelligence.Template, error) {
	var query url.Values
	if customerID != "" {
		query = url.Values{"customerId": {customerID}}
	}
	resp, err := a.client.Get(ctx, "/customer-intelligence/templates", query)
	if err != nil {
		return nil, err
	}

	wires, err := DecodeList[templateWire](resp.Body, TemplateListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Template response was not fully understood", zap.Error(err))
	}
	out := make([]intelligence.Template, 0, len(wires))
	for _, w := range wires {
		out = append(out, intelligence.Template{
			ID:          string(w.ID),
			Name:        w.Name,
			Description: w.Description,
			UsageCount:  int(w.UsageCount),
			Items:       bundleItems(w.Items),
		})
	}
	return out, nil
}

// QuoteHealth scores a draft quote
func (a *IntelligenceAPI) QuoteHealth(ctx context.Context, req intelligence.HealthRequest) (*intelligence.HealthReport, error) {
	items := make([]bundleItemPayload, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, bundleItemPayload{
			MaterialID:  it.MaterialID,
			Description: it.Description,
			Quantity:    money(it.Quantity),
			UnitPrice:   money(it.UnitPrice),
		})
	}

	resp, err := a.client.Post(ctx, "/customer-intelligence/quote-health", map[string]any{
		"customerId":  req.CustomerID,
		"title":       req.Title,
		"lineItems":   items,
		"totalAmount": money(req.Total),
	})
	if err != nil {
		return nil, err
	}

	w, err := DecodeObject[healthWire](resp.Body, "health", ObjectPaths[0], ObjectPaths[1])
	if err != nil {
		return nil, err
	}
	report := &intelligence.HealthReport{
		Score:           int(w.Score),
		Issues:          make([]intelligence.HealthIssue, 0, len(w.Issues)),
		Recommendations: w.Recommendations,
	}
	for _, is := range w.Issues {
		report.Issues = append(report.Issues, intelligence.HealthIssue{
			Severity: is.Severity,
			Message:  is.Message,
			Field:    is.Field,
		})
	}
	return report, nil
}

func bundleItems(wires []bundleItemWire) []intelligence.BundleItem {
	items := make([]intelligence.BundleItem, 0, len(wires))
	for _, w := range wires {
		desc := w.Description
		if desc == "" {
			desc = w.Name
		}
		qty := w.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, intelligence.BundleItem{
			MaterialID:  string(w.MaterialID),
			Description: desc,
			Quantity:    qty.decimal(),
			UnitPrice:   w.UnitPrice.decimal(),
		})
	}
	return items
}
