// Package bootstrap assembles the application from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	quoteapp "github.com/erp/quotedesk/internal/application/quote"
	"github.com/erp/quotedesk/internal/domain/quote"
	"github.com/erp/quotedesk/internal/infrastructure/api"
	"github.com/erp/quotedesk/internal/infrastructure/cache"
	"github.com/erp/quotedesk/internal/infrastructure/config"
	"github.com/erp/quotedesk/internal/infrastructure/httpclient"
	"github.com/erp/quotedesk/internal/infrastructure/localstore"
	"github.com/erp/quotedesk/internal/infrastructure/printing"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// App holds the wired application components
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *telemetry.Metrics

	Store  localstore.Store
	Tokens *localstore.TokenStore
	Client *httpclient.Client

	Quotes       *quoteapp.Manager
	Orders       *localstore.OrderRepository
	Jobs         *api.JobsAPI
	Customers    *api.CustomersAPI
	Audit        *api.AuditAPI
	Catalog      *api.CatalogAPI
	Intelligence *api.IntelligenceAPI

	documents *printing.Service
	closers   []func() error
}

// Option configures New
type Option func(*options)

type options struct {
	confirmer  quoteapp.Confirmer
	httpClient *http.Client
	store      localstore.Store
}

// WithConfirmer sets how the lifecycle manager asks for confirmation.
// Defaults to quoteapp.ContextConfirmer.
func WithConfirmer(c quoteapp.Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithHTTPClient replaces the http.Client used for backend calls
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithStore uses store instead of opening the configured one
func WithStore(store localstore.Store) Option {
	return func(o *options) { o.store = store }
}

// New wires the application. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	o := options{confirmer: quoteapp.ContextConfirmer}
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: telemetry.NewMetrics(telemetry.DefaultMetricsConfig()),
	}

	store := o.store
	if store == nil {
		var err error
		store, err = localstore.Open(cfg.Store, cfg.Log.Level, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open local store: %w", err)
		}
		app.closers = append(app.closers, store.Close)
	}
	app.Store = store
	app.Tokens = localstore.NewTokenStore(store)
	app.Orders = localstore.NewOrderRepository(store)

	clientOpts := []httpclient.Option{
		httpclient.WithTokenSource(httpclient.ChainTokenSource{
			httpclient.ContextToken,
			httpclient.StaticToken(cfg.Auth.Token),
			app.Tokens,
		}),
		httpclient.WithLogger(log),
		httpclient.WithMetrics(app.Metrics),
	}
	if cfg.API.MaxRetries > 0 {
		rc := httpclient.DefaultRetryConfig()
		rc.MaxRetries = cfg.API.MaxRetries
		rc.RetryDelay = cfg.API.RetryDelay
		clientOpts = append(clientOpts, httpclient.WithRetryConfig(rc))
	}
	if cfg.API.RateLimit > 0 {
		clientOpts = append(clientOpts, httpclient.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	client, err := httpclient.New(httpclient.Config{
		BaseURL:       cfg.API.BaseURL,
		Timeout:       cfg.API.Timeout,
		TLSSkipVerify: cfg.API.TLSSkipVerify,
		UserAgent:     cfg.API.UserAgent,
	}, clientOpts...)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	app.Client = client

	app.Jobs = api.NewJobsAPI(client, log)
	app.Customers = api.NewCustomersAPI(client, log)
	app.Audit = api.NewAuditAPI(client, log)
	app.Catalog = api.NewCatalogAPI(client, log)
	app.Intelligence = api.NewIntelligenceAPI(client, log)

	claims, err := cache.NewIdempotencyStoreFactory(cfg.Idempotency, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to create idempotency store: %w", err)
	}
	app.closers = append(app.closers, claims.Close)

	app.Quotes = quoteapp.NewManager(
		api.NewQuotesAPI(client, log),
		api.NewOrdersAPI(client, log),
		app.Orders,
		quoteapp.WithJobGateway(app.Jobs),
		quoteapp.WithIdempotencyStore(claims, cfg.Idempotency.TTL),
		quoteapp.WithConfirmer(o.confirmer),
		quoteapp.WithFallbackDefaults(FallbackDefaults(cfg.Lifecycle)),
		quoteapp.WithLogger(log),
		quoteapp.WithMetrics(app.Metrics),
	)

	return app, nil
}

// FallbackDefaults converts the lifecycle configuration
func FallbackDefaults(l config.LifecycleConfig) quote.FallbackDefaults {
	return quote.FallbackDefaults{
		MarginPercent: l.Margin(),
		LeadTimeWeeks: l.LeadTimeWeeks,
		PaymentTerms:  l.PaymentTerms,
		DeadlineDays:  l.DeadlineDays,
	}
}

// Documents returns the PDF service, creating it on first use. Chrome is
// only started by the first render.
func (a *App) Documents(ctx context.Context) (*printing.Service, error) {
	if a.documents != nil {
		return a.documents, nil
	}
	svc, err := printing.NewServiceFromConfig(ctx, a.Config.Printing, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create document service: %w", err)
	}
	a.documents = svc
	a.closers = append(a.closers, svc.Close)
	return svc, nil
}

// Close releases resources in reverse order of creation
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
