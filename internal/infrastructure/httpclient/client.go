// Package httpclient provides the HTTP client used to reach the ERP backend.
// It handles bearer authentication, request correlation, retries, tracing
// and error decoding.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/logger"
	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the correlation ID of every outbound request
const RequestIDHeader = "X-Request-ID"

// Config holds the connection settings of a Client
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	TLSSkipVerify bool
	UserAgent     string
	Headers       map[string]string
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *Response, err error) bool
}

// DefaultRetryConfig returns a configuration with retries disabled. Raising
// MaxRetries retries transport errors, 5xx and 429 responses.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 0,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		ShouldRetry: func(resp *Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// Client is the HTTP client for the ERP backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	headers     map[string]string
	tokens      TokenSource
	retryConfig RetryConfig
	logger      *zap.Logger
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
	limiter     *rate.Limiter

	mu          sync.Mutex
	warnedToken string
}

// Option configures a Client
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request metrics
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRateLimit caps outbound requests at qps with the given burst. A burst
// of 0 defaults to max(1, qps); qps <= 0 leaves requests unlimited.
func WithRateLimit(qps float64, burst int) Option {
	return func(c *Client) {
		if qps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = max(1, int(qps))
		}
		c.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig sets the retry policy
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) {
		if rc.ShouldRetry == nil {
			rc.ShouldRetry = DefaultRetryConfig().ShouldRetry
		}
		c.retryConfig = rc
	}
}

// New creates a client for the backend at cfg.BaseURL
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute: %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient:  &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		headers:     make(map[string]string),
		retryConfig: DefaultRetryConfig(),
		logger:      zap.NewNop(),
		tracer:      telemetry.Tracer(),
	}

	c.headers["Accept"] = "application/json"
	c.headers["User-Agent"] = "quotedesk/1.0"
	if cfg.UserAgent != "" {
		c.headers["User-Agent"] = cfg.UserAgent
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}

	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("api")
	return c, nil
}

// Request represents an HTTP request to the backend.
type Request struct {
	Method string
	Path   string // relative to the base URL, e.g. /quotes/42
	// Endpoint is the low-cardinality route used in metrics and span names,
	// e.g. /quotes/:id. Defaults to Path.
	Endpoint string
	Query    url.Values
	Headers  map[string]string
	Body     any
}

// Response represents a backend response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Do executes req. A non-2xx response is returned together with an
// *APIError; transport failures return a nil response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.Path
	}

	u, err := c.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	var body []byte
	if req.Body != nil {
		body, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	ctx, span := c.tracer.Start(ctx, req.Method+" "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("http.route", endpoint),
			attribute.String("server.address", u.Host),
		),
	)
	defer span.End()

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var resp *Response
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		attemptStart := time.Now()
		resp, err = c.execute(ctx, req, u, body, requestID)
		c.metrics.ObserveAPIRequest(req.Method, endpoint, statusOf(resp), time.Since(attemptStart))

		if ctx.Err() != nil || attempt >= c.retryConfig.MaxRetries || !c.retryConfig.ShouldRetry(resp, err) {
			break
		}
		logger.Bind(ctx, c.logger).Debug("Retrying request",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Bind(ctx, c.logger).Warn("Request failed",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newAPIError(resp)
		span.SetStatus(codes.Error, apiErr.Error())
		logger.Bind(ctx, c.logger).Warn("Backend returned an error",
			zap.String("method", req.Method),
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return resp, apiErr
	}

	logger.Bind(ctx, c.logger).Debug("Request completed",
		zap.String("method", req.Method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
	)
	return resp, nil
}

// execute sends a single attempt
func (c *Client) execute(ctx context.Context, req Request, u *url.URL, body []byte, requestID string) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w", err)
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	if err := c.authenticate(ctx, httpReq); err != nil {
		return nil, fmt.Errorf("authenticating request: %w", err)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
		Duration:   time.Since(start),
	}
	if err != nil {
		return resp, fmt.Errorf("reading response body: %w", err)
	}
	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildURL appends path to the base URL, keeping any base path prefix
func (c *Client) buildURL(path string, query url.Values) (*url.URL, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// calculateBackoff calculates the backoff delay for the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConfig.RetryDelay) * math.Pow(c.retryConfig.Multiplier, float64(attempt-1))
	if c.retryConfig.MaxDelay > 0 && delay > float64(c.retryConfig.MaxDelay) {
		delay = float64(c.retryConfig.MaxDelay)
	}
	// ±25% jitter
	jitter := delay * 0.25
	delay += (rand.Float64()*2 - 1) * jitter
	return time.Duration(delay)
}

func statusOf(resp *Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
