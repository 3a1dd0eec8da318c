// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// helpers shared by the API client, the lifecycle manager and the server.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Conversion outcomes recorded by ObserveConversion
const (
	ConversionRemote   = "remote"
	ConversionFallback = "fallback"
	ConversionFailed   = "failed"
)

// MetricsConfig holds configuration for the metrics registry.
type MetricsConfig struct {
	// Namespace is the prefix for all metrics.
	// Default: "quotedesk"
	Namespace string

	// HistogramBuckets are the buckets for request durations.
	// Default: prometheus.DefBuckets
	HistogramBuckets []float64

	// ProcessCollectors adds Go runtime and process metrics.
	ProcessCollectors bool
}

// DefaultMetricsConfig returns default configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:        "quotedesk",
		HistogramBuckets: prometheus.DefBuckets,
	}
}

// Metrics records client and server metrics in a private registry.
// A nil *Metrics is valid and records nothing.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Metrics struct {
	registry *prometheus.Registry

	apiRequestsTotal    *prometheus.CounterVec
	apiRequestDuration  *prometheus.HistogramVec
	conversionsTotal    *prometheus.CounterVec
	fallbackOrdersTotal prometheus.Counter
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a metrics set registered on its own registry
func NewMetrics(cfg MetricsConfig) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "quotedesk"
	}
	if len(cfg.HistogramBuckets) == 0 {
		cfg.HistogramBuckets = prometheus.DefBuckets
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of requests made to the ERP backend.",
		},
		[]string{"method", "endpoint", "status"},
	)
	m.apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests to the ERP backend in seconds.",
			Buckets:   cfg.HistogramBuckets,
		},
		[]string{"method", "endpoint"},
	)
	m.conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "quote_conversions_total",
			Help:      "Quote to order conversions by outcome (remote, fallback, failed).",
		},
		[]string{"outcome"},
	)
	m.fallbackOrdersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "fallback_orders_stored_total",
			Help:      "Orders synthesized and stored locally after a failed conversion.",
		},
	)
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests served.",
		},
		[]string{"method", "route", "status"},
	)
	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of served requests in seconds.",
			Buckets:   cfg.HistogramBuckets,
		},
		[]string{"method", "route"},
	)

	m.registry.MustRegister(
		m.apiRequestsTotal,
		m.apiRequestDuration,
		m.conversionsTotal,
		m.fallbackOrdersTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	if cfg.ProcessCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// ObserveAPIRequest records one request to the backend. status is the HTTP
// status code, or 0 when no response was received.
func (m *Metrics) ObserveAPIRequest(method, endpoint string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.apiRequestsTotal.WithLabelValues(method, endpoint, label).Inc()
	m.apiRequestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// ObserveConversion records the outcome of a quote conversion
func (m *Metrics) ObserveConversion(outcome string) {
	if m == nil {
		return
	}
	m.conversionsTotal.WithLabelValues(outcome).Inc()
	if outcome == ConversionFallback {
		m.fallbackOrdersTotal.Inc()
	}
}

// ObserveHTTPRequest records one request served by the server
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the scrape handler for the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
