package clients

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/classquotes/internal/platform/config"
	"github.com/jsamuelsen/classquotes/internal/platform/logging"
)

func defaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:     baseURL,
		ServiceName: "classquotes",
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	}
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Errorf("failed to close response body: %v", err)
	}
}

// countingServer answers with status(n) for the nth request, starting at 1.
func countingServer(t *testing.T, status func(n int32) int) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status(calls.Add(1)))
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "config is required")

	cfg := defaultConfig("http://localhost")
	cfg.ServiceName = ""
	_, err = New(cfg)
	require.ErrorContains(t, err, "service name is required")

	client, err := New(defaultConfig("http://localhost:8080/"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
}

func TestClient_PropagatesRequestIDAndHeaders(t *testing.T) {
	var gotID, gotRoles string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(HeaderRequestID)
		gotRoles = r.Header.Get("X-User-Roles")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := defaultConfig(srv.URL)
	cfg.HeaderFunc = func(r *http.Request) { r.Header.Set("X-User-Roles", "admin") }

	client, err := New(cfg)
	require.NoError(t, err)

	ctx := logging.WithRequestID(context.Background(), "req-42")

	resp, err := client.Get(ctx, "/api/quotes")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, "req-42", gotID)
	assert.Equal(t, "admin", gotRoles)
}

func TestClient_GetRetriesServerErrors(t *testing.T) {
	srv, calls := countingServer(t, func(n int32) int {
		if n < 3 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})

	client, err := New(defaultConfig(srv.URL))
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/api/quotes")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_LastServerErrorIsReturned(t *testing.T) {
	srv, calls := countingServer(t, func(int32) int { return http.StatusInternalServerError })

	client, err := New(defaultConfig(srv.URL))
	require.NoError(t, err)

	resp, err := client.Delete(context.Background(), "/api/quotes/q-1")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NonIdempotentMethodsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (*http.Response, error)
	}{
		{"post", func(c *Client) (*http.Response, error) {
			return c.Post(context.Background(), "/api/quotes", []byte(`{"name":"a","text":"b"}`))
		}},
		{"patch", func(c *Client) (*http.Response, error) {
			return c.Patch(context.Background(), "/api/quotes/q-1", []byte(`{"text":"b"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, calls := countingServer(t, func(int32) int { return http.StatusBadGateway })

			client, err := New(defaultConfig(srv.URL))
			require.NoError(t, err)

			resp, err := tt.call(client)
			require.NoError(t, err)
			closeBody(t, resp)

			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	srv, calls := countingServer(t, func(int32) int { return http.StatusNotFound })

	client, err := New(defaultConfig(srv.URL))
	require.NoError(t, err)

	resp, err := client.Get(context.Background(), "/api/quotes/missing")
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateClosed, client.CircuitState())
}

func TestClient_SendsJSONBody(t *testing.T) {
	var gotBody, gotType, gotMethod string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		gotType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client, err := New(defaultConfig(srv.URL))
	require.NoError(t, err)

	resp, err := client.Post(context.Background(), "api/quotes", []byte(`{"name":"Frau Berg"}`))
	require.NoError(t, err)
	closeBody(t, resp)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"name":"Frau Berg"}`, gotBody)
}

func TestClient_ConnectionRefusedExhaustsRetries(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	client, err := New(defaultConfig("http://" + addr))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/api/quotes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
}

func TestClient_CircuitOpensAndShortCircuits(t *testing.T) {
	srv, calls := countingServer(t, func(int32) int { return http.StatusInternalServerError })

	cfg := defaultConfig(srv.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2
	cfg.Circuit.Timeout = time.Minute

	client, err := New(cfg)
	require.NoError(t, err)

	for range 2 {
		resp, err := client.Get(context.Background(), "/api/quotes")
		require.NoError(t, err)
		closeBody(t, resp)
	}

	assert.Equal(t, StateOpen, client.CircuitState())

	_, err = client.Get(context.Background(), "/api/quotes")
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := New(defaultConfig(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Get(ctx, "/slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled))
}

func TestCalculateBackoff(t *testing.T) {
	client, err := New(defaultConfig("http://localhost"))
	require.NoError(t, err)

	for attempt := 1; attempt <= 5; attempt++ {
		backoff := client.calculateBackoff(attempt)
		assert.Positive(t, backoff)
		assert.LessOrEqual(t, backoff, 25*time.Millisecond, "capped at max interval plus jitter")
	}

	first := client.calculateBackoff(1)
	assert.GreaterOrEqual(t, first, 3*time.Millisecond)
	assert.LessOrEqual(t, first, 7*time.Millisecond)
}

type testNetError struct{ timeout bool }

func (e testNetError) Error() string   { return "test net error" }
func (e testNetError) Timeout() bool   { return e.timeout }
func (e testNetError) Temporary() bool { return true }

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(context.DeadlineExceeded))
	assert.False(t, isRetryableError(errors.New("boom")))
	assert.True(t, isRetryableError(testNetError{timeout: true}))
	assert.False(t, isRetryableError(testNetError{timeout: false}))
	assert.True(t, isRetryableError(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
}

func TestIsIdempotent(t *testing.T) {
	assert.True(t, isIdempotent(http.MethodGet))
	assert.True(t, isIdempotent(http.MethodHead))
	assert.True(t, isIdempotent(http.MethodDelete))
	assert.False(t, isIdempotent(http.MethodPost))
	assert.False(t, isIdempotent(http.MethodPatch))
}
