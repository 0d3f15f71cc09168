// Package clients provides the instrumented HTTP client the quote CLI uses to
// talk to a remote classquotes service.
package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/classquotes/internal/platform/config"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/classquotes/internal/adapters/clients"

	// HeaderRequestID carries the caller's request id to the remote.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout = 10 * time.Second

	defaultMaxIdleConns        = 20
	defaultMaxIdleConnsPerHost = 5
	defaultIdleConnTimeout     = 90 * time.Second

	defaultJitterFactor = 0.25

	defaultCircuitMaxFailures = 5
	defaultCircuitTimeout     = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is prefixed to every request path, e.g. "http://localhost:8080".
	BaseURL string

	// ServiceName names the remote in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// HeaderFunc, if set, decorates every attempt (roles, auth).
	HeaderFunc func(*http.Request)

	Logger *slog.Logger
}

// Client executes HTTP requests with a circuit breaker, tracing and
// metrics. Only idempotent methods (GET, HEAD, DELETE) are retried.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	logger      *slog.Logger
	cb          *CircuitBreaker

	tracer          trace.Tracer
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

// New creates a Client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 1
	}

	if cfg.Circuit.MaxFailures <= 0 {
		cfg.Circuit.MaxFailures = defaultCircuitMaxFailures
	}

	if cfg.Circuit.Timeout <= 0 {
		cfg.Circuit.Timeout = defaultCircuitTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(
		slog.String("component", "clients.Client"),
		slog.String("downstream", cfg.ServiceName),
	)

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	requestDuration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Duration of requests to the quote service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	requestTotal, err := meter.Int64Counter(
		"http.client.request.total",
		metric.WithDescription("Requests sent to the quote service"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newTransport(cfg.Transport),
		},
		baseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName:     cfg.ServiceName,
		cfg:             cfg,
		logger:          logger,
		cb:              cb,
		tracer:          otel.Tracer(instrumentationName),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}, nil
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	if t.MaxIdleConns <= 0 {
		t.MaxIdleConns = defaultMaxIdleConns
	}

	if t.MaxIdleConnsPerHost <= 0 {
		t.MaxIdleConnsPerHost = defaultMaxIdleConnsPerHost
	}

	if t.IdleConnTimeout <= 0 {
		t.IdleConnTimeout = defaultIdleConnTimeout
	}

	return t
}

// Do executes req. A 5xx response on the last attempt is returned as-is so
// the caller can decode the error envelope; it still counts as a circuit
// failure.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	started := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.recordMetrics(ctx, req.Method, 0, time.Since(started), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.injectHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	attempts := 1
	if isIdempotent(req.Method) {
		attempts = c.cfg.Retry.MaxAttempts
	}

	resp, err := c.execute(ctx, req, attempts, logger)

	return c.finish(ctx, req, resp, err, attempts, span, logger, started)
}

func (c *Client) execute(ctx context.Context, req *http.Request, attempts int, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range attempts {
		if attempt > 0 {
			if err := c.wait(ctx, attempt, logger); err != nil {
				return nil, err
			}

			if err := rewind(req); err != nil {
				return nil, err
			}

			c.injectHeaders(ctx, req)
		}

		last := attempt == attempts-1

		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			lastErr = err
			if !last && isRetryableError(err) {
				logger.Debug("attempt failed, retrying",
					slog.Int("attempt", attempt+1),
					slog.Any("error", err),
				)

				continue
			}

			return nil, err
		}

		if resp.StatusCode >= http.StatusInternalServerError && !last {
			logger.Debug("server error, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("status", resp.StatusCode),
			)

			if closeErr := resp.Body.Close(); closeErr != nil {
				logger.Debug("failed to close response body", slog.Any("error", closeErr))
			}

			continue
		}

		return resp, nil
	}

	return nil, lastErr
}

func (c *Client) wait(ctx context.Context, attempt int, logger *slog.Logger) error {
	backoff := c.calculateBackoff(attempt)
	logger.Log(ctx, logging.LevelTrace, "backing off", slog.Duration("backoff", backoff))

	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) finish(
	ctx context.Context,
	req *http.Request,
	resp *http.Response,
	err error,
	attempts int,
	span trace.Span,
	logger *slog.Logger,
	started time.Time,
) (*http.Response, error) {
	elapsed := time.Since(started)

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.recordMetrics(ctx, req.Method, 0, elapsed, "error")
		logger.Error("request failed",
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)

		if attempts > 1 && isRetryableError(err) {
			return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
		}

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	c.recordMetrics(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, path, nil)
}

// Post sends body as JSON.
func (c *Client) Post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, path, body)
}

// Patch sends body as JSON.
func (c *Client) Patch(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.send(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, path, nil)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var req *http.Request
	var err error

	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.buildURL(path), http.NoBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.buildURL(path), bytes.NewReader(body))
	}

	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// CircuitState returns the breaker position.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	if c.cfg.HeaderFunc != nil {
		c.cfg.HeaderFunc(req)
	}
}

func (c *Client) buildURL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// calculateBackoff is exponential with symmetric jitter, capped at MaxInterval.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.cfg.Retry.InitialInterval) * math.Pow(c.cfg.Retry.Multiplier, float64(attempt-1))

	if maxInterval := float64(c.cfg.Retry.MaxInterval); maxInterval > 0 && backoff > maxInterval {
		backoff = maxInterval
	}

	factor := c.cfg.Retry.JitterFactor
	if factor <= 0 {
		factor = defaultJitterFactor
	}

	jitter := backoff * factor * (rand.Float64()*2 - 1) //nolint:gosec // jitter only

	return time.Duration(backoff + jitter)
}

func (c *Client) recordMetrics(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	c.requestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
	c.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}

	return false
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewinding request body: %w", err)
	}

	req.Body = body

	return nil
}

func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
