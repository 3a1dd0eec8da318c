package api

import (
	"context"

	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Material is a catalog material that can back a quote line item
type Material struct {
	ID        string          `json:"id"`
	Code      string          `json:"code,omitempty"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Stock     decimal.Decimal `json:"stock"`
}

type materialWire struct {
	ID        looseString `json:"id"`
	Code      string      `json:"code"`
	Name      string      `json:"name"`
	Unit      string      `json:"unit"`
	UnitPrice looseFloat  `json:"unitPrice"`
	Price     looseFloat  `json:"price"`
	Stock     looseFloat  `json:"stock"`
}

// Supplier is a material supplier
type Supplier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type supplierWire struct {
	ID      looseString `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Contact string      `json:"contactName"`
}

// CatalogAPI covers the /materials and /suppliers endpoints
type CatalogAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewCatalogAPI creates the catalog module
func NewCatalogAPI(client *httpclient.Client, logger *zap.Logger) *CatalogAPI {
	return &CatalogAPI{client: client, logger: logger}
}

// Materials lists catalog materials
func (a *CatalogAPI) Materials(ctx context.Context) ([]Material, error) {
	resp, err := a.client.Get(ctx, "/materials", nil)
	if err != nil {
		return nil, err
	}
	wires, err := DecodeList[materialWire](resp.Body, MaterialListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Material list response was not fully understood", zap.Error(err))
	}
	materials := make([]Material, 0, len(wires))
	for _, w := range wires {
		price := w.UnitPrice
		if price == 0 {
			price = w.Price
		}
		materials = append(materials, Material{
			ID:        string(w.ID),
			Code:      w.Code,
			Name:      w.Name,
			Unit:      w.Unit,
			UnitPrice: price.decimal(),
			Stock:     w.Stock.decimal(),
		})
	}
	return materials, nil
}

// Suppliers lists suppliers
func (a *CatalogAPI) Suppliers(ctx context.Context) ([]Supplier, error) {
	resp, err := a.client.Get(ctx, "/suppliers", nil)
	if err != nil {
		return nil, err
	}
	wires, err := DecodeList[supplierWire](resp.Body, SupplierListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Supplier list response was not fully understood", zap.Error(err))
	}
	suppliers := make([]Supplier, 0, len(wires))
	for _, w := range wires {
		suppliers = append(suppliers, Supplier{
			ID:      string(w.ID),
			Name:    w.Name,
			Email:   w.Email,
			Phone:   w.Phone,
			Contact: w.Contact,
		})
	}
	return suppliers, nil
}
