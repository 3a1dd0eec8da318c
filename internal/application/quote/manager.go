// Package quote orchestrates the quote lifecycle: listing, editing,
// versioning, cloning, saving and conversion into orders.
package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/quotedesk/internal/domain/job"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/domain/shared"
	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Manager holds the client-side quote list and runs lifecycle operations
// against the backend. It is safe for concurrent use.
type Manager struct {
	quotes    QuoteGateway
	orders    OrderGateway
	jobs      JobGateway
	repo      quote.FallbackOrderRepository
	claims    shared.IdempotencyStore
	confirmer Confirmer
	defaults  quote.FallbackDefaults
	claimTTL  time.Duration
	now       func() time.Time
	logger    *zap.Logger
	metrics   *telemetry.Metrics
	validate  *validator.Validate

	mu         sync.RWMutex
	items      []quote.Quote
	loaded     bool
	generation uint64
	applied    uint64
}

// Option configures a Manager
type Option func(*Manager)

// WithJobGateway enables CreateJob
func WithJobGateway(jobs JobGateway) Option {
	return func(m *Manager) {
		m.jobs = jobs
	}
}

// WithIdempotencyStore guards conversions against duplicates
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) Option {
	return func(m *Manager) {
		m.claims = store
		if ttl > 0 {
			m.claimTTL = ttl
		}
	}
}

// WithConfirmer sets how clone and convert are confirmed.
// Defaults to ContextConfirmer.
func WithConfirmer(c Confirmer) Option {
	return func(m *Manager) {
		if c != nil {
			m.confirmer = c
		}
	}
}

// WithFallbackDefaults sets the commercial terms of locally synthesized orders
func WithFallbackDefaults(d quote.FallbackDefaults) Option {
	return func(m *Manager) {
		m.defaults = d
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics records conversion outcomes
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// NewManager creates a Manager
func NewManager(quotes QuoteGateway, orders OrderGateway, repo quote.FallbackOrderRepository, opts ...Option) *Manager {
	m := &Manager{
		quotes:    quotes,
		orders:    orders,
		repo:      repo,
		confirmer: ContextConfirmer,
		defaults:  quote.DefaultFallbackDefaults(),
		claimTTL:  shared.DefaultIdempotencyConfig().TTL,
		now:       time.Now,
		logger:    zap.NewNop(),
		validate:  newValidator(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Refresh reloads the quote list from the backend and returns a snapshot.
// A refresh that completes after a newer one has been applied is discarded
// and the current state is returned instead.
func (m *Manager) Refresh(ctx context.Context) ([]quote.Quote, error) {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	items, err := m.quotes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quotes: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.overlayLocalOrders(ctx, items)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen <= m.applied {
		logger.Bind(ctx, m.logger).Debug("Discarding stale quote refresh",
			zap.Uint64("generation", gen),
			zap.Uint64("applied", m.applied),
		)
		return m.snapshotLocked(), nil
	}

	m.items = items
	m.loaded = true
	m.applied = gen
	return m.snapshotLocked(), nil
}

// overlayLocalOrders marks quotes converted by a local fallback order that
// the backend does not know about yet.
func (m *Manager) overlayLocalOrders(ctx context.Context, items []quote.Quote) {
	if m.repo == nil {
		return
	}
	orders, err := m.repo.List(ctx)
	if err != nil {
		logger.Bind(ctx, m.logger).Warn("Failed to read local orders", zap.Error(err))
		return
	}
	if len(orders) == 0 {
		return
	}

	byQuote := make(map[string]string, len(orders))
	for _, o := range orders {
		byQuote[o.QuoteID] = o.ID
	}
	for i := range items {
		if items[i].Status == quote.StatusConverted {
			continue
		}
		if orderID, ok := byQuote[items[i].ID]; ok {
			items[i].MarkConverted(orderID)
		}
	}
}

// List returns the filtered, sorted quote list, loading it on first use.
func (m *Manager) List(ctx context.Context, f quote.Filter) ([]quote.Quote, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return quote.Apply(m.items, f), nil
}

// Get returns a copy of the quote with id from the local state
func (m *Manager) Get(ctx context.Context, id string) (*quote.Quote, error) {
	if err := m.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.items {
		if m.items[i].ID == id {
			q := m.items[i].Copy()
			return &q, nil
		}
	}
	return nil, shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Quote %s not found", id))
}

// AllowedActions returns the actions the quote's status permits
func (m *Manager) AllowedActions(ctx context.Context, id string) ([]quote.Action, error) {
	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return quote.AllowedActions(q.Status), nil
}

// Edit returns an editor form for an editable quote. Saving the form updates
// the quote in place.
func (m *Manager) Edit(ctx context.Context, id string) (*quote.Form, error) {
	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.CheckAction(quote.ActionEdit); err != nil {
		return nil, err
	}

	form := quote.FormFromQuote(*q)
	return &form, nil
}

// NewVersion returns a form that saves as a new version of the quote.
func (m *Manager) NewVersion(ctx context.Context, id, reason string) (*quote.Form, error) {
	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.CheckAction(quote.ActionVersion); err != nil {
		return nil, err
	}

	form := quote.VersionFormFromQuote(*q, reason)
	return &form, nil
}

// Save validates the form and sends it to the backend. A form with an ID
// and no parent updates that quote; anything else creates a new quote or
// version. The local list is refreshed only after the backend accepted it.
func (m *Manager) Save(ctx context.Context, form quote.Form) (*quote.Quote, error) {
	if err := validateStruct(m.validate, form); err != nil {
		return nil, err
	}

	log := logger.Bind(ctx, m.logger)

	var (
		saved *quote.Quote
		err   error
	)
	if form.IsInPlaceEdit() {
		saved, err = m.quotes.Update(ctx, form.ID, form)
	} else {
		saved, err = m.quotes.Create(ctx, form)
	}
	if err != nil {
		return nil, err
	}

	if _, err := m.Refresh(ctx); err != nil {
		log.Warn("Quote saved but list refresh failed", zap.Error(err))
	}

	if saved != nil {
		log.Info("Quote saved",
			zap.String("quote_id", saved.ID),
			zap.Bool("in_place", form.IsInPlaceEdit()),
		)
	}
	return saved, nil
}

// Clone asks for confirmation and then duplicates the quote on the backend.
// Local state changes only through the refresh that follows a successful
// clone.
func (m *Manager) Clone(ctx context.Context, id string) (*quote.Quote, error) {
	q, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.CheckAction(quote.ActionClone); err != nil {
		return nil, err
	}
	if err := m.confirm(ctx, quote.ActionClone, *q,
		fmt.Sprintf("Create a copy of quote %s?", q.DisplayReference())); err != nil {
		return nil, err
	}

	cloned, err := m.quotes.Clone(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := m.Refresh(ctx); err != nil {
		logger.Bind(ctx, m.logger).Warn("Quote cloned but list refresh failed", zap.Error(err))
	}
	return cloned, nil
}

// CreateJob creates a production job, typically from a conversion's JobDraft
func (m *Manager) CreateJob(ctx context.Context, draft job.Draft) (*job.Job, error) {
	if m.jobs == nil {
		return nil, errors.New("job creation is not configured")
	}
	if err := validateStruct(m.validate, draft); err != nil {
		return nil, err
	}
	return m.jobs.Create(ctx, draft)
}

// LocalOrders lists the orders synthesized on this device
func (m *Manager) LocalOrders(ctx context.Context) ([]quote.FallbackOrder, error) {
	if m.repo == nil {
		return nil, nil
	}
	return m.repo.List(ctx)
}

// Snapshot returns a copy of the loaded quotes without contacting the backend
func (m *Manager) Snapshot() []quote.Quote {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *Manager) ensureLoaded(ctx context.Context) error {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()

	if loaded {
		return nil
	}
	_, err := m.Refresh(ctx)
	return err
}

func (m *Manager) snapshotLocked() []quote.Quote {
	out := make([]quote.Quote, len(m.items))
	for i := range m.items {
		out[i] = m.items[i].Copy()
	}
	return out
}

func (m *Manager) confirm(ctx context.Context, action quote.Action, q quote.Quote, msg string) error {
	ok, err := m.confirmer.Confirm(ctx, Prompt{Action: action, Quote: q, Message: msg})
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		return shared.ErrCancelled
	}
	return nil
}
