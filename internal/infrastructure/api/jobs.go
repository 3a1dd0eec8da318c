package api

import (
	"context"
	"net/url"
	"time"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type jobWire struct {
	ID           looseString   `json:"id"`
	JobNumber    looseString   `json:"jobNumber"`
	Title        looseString   `json:"title"`
	Status       looseString   `json:"status"`
	CustomerID   looseString   `json:"customerId"`
	CustomerName looseString   `json:"customerName"`
	Customer     *customerWire `json:"customer"`
	OrderID      looseString   `json:"orderId"`
	QuoteID      looseString   `json:"quoteId"`
	DueDate      looseTime     `json:"dueDate"`
	CreatedAt    looseTime     `json:"createdAt"`
}

func (w jobWire) toDomain() job.Job {
	j := job.Job{
		ID:           string(w.ID),
		JobNumber:    string(w.JobNumber),
		Title:        string(w.Title),
		Status:       string(w.Status),
		CustomerID:   string(w.CustomerID),
		CustomerName: string(w.CustomerName),
		OrderID:      string(w.OrderID),
		QuoteID:      string(w.QuoteID),
		DueDate:      w.DueDate.ptr(),
		CreatedAt:    w.CreatedAt.Time,
	}
	if j.CustomerName == "" && w.Customer != nil {
		j.CustomerName = string(w.Customer.Name)
	}
	return j
}

type costWire struct {
	ID          looseString `json:"id"`
	JobID       looseString `json:"jobId"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Amount      looseFloat  `json:"amount"`
	IncurredAt  looseTime   `json:"incurredAt"`
}

type materialUsageWire struct {
	ID         looseString `json:"id"`
	JobID      looseString `json:"jobId"`
	MaterialID looseString `json:"materialId"`
	Name       string      `json:"name"`
	Quantity   looseFloat  `json:"quantity"`
	UnitCost   looseFloat  `json:"unitCost"`
}

// JobUpdate holds the editable fields of a job
type JobUpdate struct {
	Title   string     `json:"title,omitempty"`
	Status  string     `json:"status,omitempty"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// CostInput is a new job cost entry
type CostInput struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"-"`
	IncurredAt  *time.Time      `json:"incurredAt,omitempty"`
}

// MaterialInput records material consumption on a job
type MaterialInput struct {
	MaterialID string          `json:"materialId"`
	Quantity   decimal.Decimal `json:"-"`
	UnitCost   decimal.Decimal `json:"-"`
}

// JobsAPI covers the /jobs endpoints
type JobsAPI struct {
	client *httpclient.Client
	logger *zap.Logger
}

// NewJobsAPI creates the jobs module
func NewJobsAPI(client *httpclient.Client, logger *zap.Logger) *JobsAPI {
	return &JobsAPI{client: client, logger: logger}
}

func jobPath(id string) string {
	return "/jobs/" + url.PathEscape(id)
}

// List fetches all jobs
func (a *JobsAPI) List(ctx context.Context) ([]job.Job, error) {
	resp, err := a.client.Get(ctx, "/jobs", nil)
	if err != nil {
		return nil, err
	}
	wires, err := DecodeList[jobWire](resp.Body, JobListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Job list response was not fully understood", zap.Error(err))
	}
	jobs := make([]job.Job, 0, len(wires))
	for _, w := range wires {
		jobs = append(jobs, w.toDomain())
	}
	return jobs, nil
}

// Get fetches a single job
func (a *JobsAPI) Get(ctx context.Context, id string) (*job.Job, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: "GET", Path: jobPath(id), Endpoint: "/jobs/:id"})
	if err != nil {
		return nil, err
	}
	return decodeJob(resp.Body)
}

// Create creates a job, typically from a freshly converted order
func (a *JobsAPI) Create(ctx context.Context, draft job.Draft) (*job.Job, error) {
	resp, err := a.client.Post(ctx, "/jobs", draft)
	if err != nil {
		return nil, err
	}
	return decodeJob(resp.Body)
}

// Update patches a job
func (a *JobsAPI) Update(ctx context.Context, id string, update JobUpdate) (*job.Job, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: "PATCH", Path: jobPath(id), Endpoint: "/jobs/:id", Body: update})
	if err != nil {
		return nil, err
	}
	return decodeJob(resp.Body)
}

// Delete removes a job
func (a *JobsAPI) Delete(ctx context.Context, id string) error {
	_, err := a.client.Do(ctx, httpclient.Request{Method: "DELETE", Path: jobPath(id), Endpoint: "/jobs/:id"})
	return err
}

// Costs lists the costs booked against a job
func (a *JobsAPI) Costs(ctx context.Context, id string) ([]job.Cost, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: "GET", Path: jobPath(id) + "/costs", Endpoint: "/jobs/:id/costs"})
	if err != nil {
		return nil, err
	}
	wires, err := DecodeList[costWire](resp.Body, JobCostListPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Job cost response was not fully understood", zap.Error(err))
	}
	costs := make([]job.Cost, 0, len(wires))
	for _, w := range wires {
		costs = append(costs, w.toDomain())
	}
	return costs, nil
}

// AddCost books a cost against a job
func (a *JobsAPI) AddCost(ctx context.Context, id string, in CostInput) (*job.Cost, error) {
	payload := struct {
		CostInput
		Amount float64 `json:"amount"`
	}{in, money(in.Amount)}

	resp, err := a.client.Do(ctx, httpclient.Request{Method: "POST", Path: jobPath(id) + "/costs", Endpoint: "/jobs/:id/costs", Body: payload})
	if err != nil {
		return nil, err
	}
	w, err := DecodeObject[costWire](resp.Body, ObjectPaths...)
	if err != nil {
		return nil, err
	}
	c := w.toDomain()
	return &c, nil
}

// Materials lists the materials consumed by a job
func (a *JobsAPI) Materials(ctx context.Context, id string) ([]job.MaterialUsage, error) {
	resp, err := a.client.Do(ctx, httpclient.Request{Method: "GET", Path: jobPath(id) + "/materials", Endpoint: "/jobs/:id/materials"})
	if err != nil {
		return nil, err
	}
	wires, err := DecodeList[materialUsageWire](resp.Body, JobMaterialPaths...)
	if err != nil {
		logger.Bind(ctx, a.logger).Warn("Job material response was not fully understood", zap.Error(err))
	}
	usages := make([]job.MaterialUsage, 0, len(wires))
	for _, w := range wires {
		usages = append(usages, w.toDomain())
	}
	return usages, nil
}

// AddMaterial records material consumption on a job
func (a *JobsAPI) AddMaterial(ctx context.Context, id string, in MaterialInput) (*job.MaterialUsage, error) {
	payload := struct {
		MaterialInput
		Quantity float64 `json:"quantity"`
		UnitCost float64 `json:"unitCost"`
	}{in, money(in.Quantity), money(in.UnitCost)}

	resp, err := a.client.Do(ctx, httpclient.Request{Method: "POST", Path: jobPath(id) + "/materials", Endpoint: "/jobs/:id/materials", Body: payload})
	if err != nil {
		return nil, err
	}
	w, err := DecodeObject[materialUsageWire](resp.Body, ObjectPaths...)
	if err != nil {
		return nil, err
	}
	m := w.toDomain()
	return &m, nil
}

func decodeJob(body []byte) (*job.Job, error) {
	w, err := DecodeObject[jobWire](body, "job", "data.job", "data", RootPath)
	if err != nil {
		return nil, err
	}
	j := w.toDomain()
	return &j, nil
}

func (w costWire) toDomain() job.Cost {
	return job.Cost{
		ID:          string(w.ID),
		JobID:       string(w.JobID),
		Category:    w.Category,
		Description: w.Description,
		Amount:      w.Amount.decimal(),
		IncurredAt:  w.IncurredAt.ptr(),
	}
}

func (w materialUsageWire) toDomain() job.MaterialUsage {
	return job.MaterialUsage{
		ID:         string(w.ID),
		JobID:      string(w.JobID),
		MaterialID: string(w.MaterialID),
		Name:       w.Name,
		Quantity:   w.Quantity.decimal(),
		UnitCost:   w.UnitCost.decimal(),
	}
}
