package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func newTestClient(srv *httptest.Server, cacheTTL time.Duration, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(Config{
		BaseURL:        srv.URL,
		IntrospectPath: "/v1/auth/introspect",
		CacheTTL:       cacheTTL,
		CircuitBreaker: breaker,
		Logger:         logging.NewNop(),
		HTTPClient:     srv.Client(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	raw, _ := sonic.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func TestClientVerifyAccessToken_ParsesResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/auth/introspect", r.URL.Path)

		var req map[string]string
		require.NoError(t, sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "token-abc", req["token"])

		writeJSON(w, map[string]any{
			"active":  true,
			"user_id": "user-123",
			"email":   "ana@example.com",
			"name":    "Ana",
		})
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{})
	principal, err := client.VerifyAccessToken(context.Background(), "token-abc")
	require.NoError(t, err)
	assert.Equal(t, usecase.Principal{UserID: "user-123", Email: "ana@example.com", Name: "Ana"}, principal)
}

func TestClientVerifyAccessToken_EmptyToken(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Logger: logging.NewNop()})
	_, err := client.VerifyAccessToken(context.Background(), "  ")
	require.True(t, errors.Is(err, usecase.ErrUnauthorized))
}

func TestClientVerifyAccessToken_InactiveToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"active": false})
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{})
	_, err := client.VerifyAccessToken(context.Background(), "invalid-token")
	require.True(t, errors.Is(err, usecase.ErrUnauthorized), "got %v", err)
}

func TestClientVerifyAccessToken_ForbiddenMappedToDependencyUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{})
	_, err := client.VerifyAccessToken(context.Background(), "token-abc")
	require.True(t, errors.Is(err, usecase.ErrDependencyUnavailable), "got %v", err)
}

func TestClientVerifyAccessToken_UsesCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, map[string]any{"active": true, "user_id": "user-cache"})
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{})
	for i := 0; i < 2; i++ {
		principal, err := client.VerifyAccessToken(context.Background(), "cached-token")
		require.NoError(t, err)
		assert.Equal(t, "user-cache", principal.UserID)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientVerifyAccessToken_CircuitOpensOnServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 3; i++ {
		_, err := client.VerifyAccessToken(context.Background(), "token-abc")
		require.True(t, errors.Is(err, usecase.ErrDependencyUnavailable), "got %v", err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientVerifyAccessToken_UnauthorizedDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Minute, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 3; i++ {
		_, err := client.VerifyAccessToken(context.Background(), "token-abc")
		require.True(t, errors.Is(err, usecase.ErrUnauthorized), "got %v", err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://id.local/v1/auth/introspect", buildURL("http://id.local/", "v1/auth/introspect"))
	assert.Equal(t, "https://other/introspect", buildURL("http://id.local", "https://other/introspect"))
	assert.Equal(t, "http://id.local", buildURL("http://id.local", ""))
}
