package api

import (
	"context"
	"strconv"

	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

type customerWire struct {
	ID      looseString `json:"id"`
	Name    looseString `json:"name"`
	Email   looseString `json:"email"`
	Phone   looseString `json:"phone"`
	Company looseString `json:"company"`
	Status  looseString `json:"status"`
}

// Customer is a customer record as listed by the backend
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Status  string `json:"status,omitempty"`
}

// CustomerPage is one page of customers
type CustomerPage struct {
	Customers      []Customer `json:"customers"`
	CurrentPage    int        `json:"currentPage"`
	TotalPages     int        `json:"totalPages"`
	TotalCustomers int        `json:"totalCustomers"`
}

type pagingWire struct {
	CurrentPage    looseFloat `json:"currentPage"`
	TotalPages     looseFloat `json:"totalPages"`
	TotalCustomers looseFloat `json:"totalCustomers"`
}

// CustomersAPI covers the /customers endpoints
type CustomersAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewCustomersAPI creates the customers module
func NewCustomersAPI(client *httpclient.Client, logger *zap.Logger) *CustomersAPI {
	return &CustomersAPI{client: client, logger: logger}
}

// List fetches a page of customers. Failures are logged and yield an empty
// page; the customer picker must stay usable when the backend is down.
func (a *CustomersAPI) List(ctx context.Context, page int) CustomerPage {
	if page < 1 {
		page = 1
	}
	empty := CustomerPage{Customers: []Customer{}, CurrentPage: page}

	resp, err := a.client.Do(ctx, httpclient.Request{
		Method: "GET",
		Path:   "/customers",
		Query:  map[string][]string{"page": {strconv.Itoa(page)}},
	})
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Failed to load customers", zap.Int("page", page), zap.Error(err))
		return empty
	}

	wires, err := DecodeList[customerWire](resp.Body, CustomerListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Customer list response was not fully understood", zap.Error(err))
	}
	result := empty
	for _, w := range wires {
		result.Customers = append(result.Customers, Customer{
			ID:      string(w.ID),
			Name:    string(w.Name),
			Email:   string(w.Email),
			Phone:   string(w.Phone),
			Company: string(w.Company),
			Status:  string(w.Status),
		})
	}

	if paging, err := DecodeObject[pagingWire](resp.Body, ObjectPaths...); err == nil {
		if paging.CurrentPage > 0 {
			result.CurrentPage = int(paging.CurrentPage)
		}
		result.TotalPages = int(paging.TotalPages)
		result.TotalCustomers = int(paging.TotalCustomers)
	}
	if result.TotalPages == 0 && len(result.Customers) > 0 {
		result.TotalPages = 1
	}
	if result.TotalCustomers == 0 {
		result.TotalCustomers = len(result.Customers)
	}
	return result
}
