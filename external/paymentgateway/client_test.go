package paymentgateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
	"github.com/riskibarqy/plus-predictor/internal/platform/resilience"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func newTestClient(baseURL string, retries int, breaker resilience.CircuitBreakerConfig) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		APIKey:         "api-secret",
		MultibancoKey:  "MBK-1",
		MBWayKey:       "MBW-1",
		Timeout:        2 * time.Second,
		MaxRetries:     retries,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: breaker,
		Logger:         logging.NewNop(),
	})
}

func TestClientCreateMultibanco_SendsKeysAndParsesReference(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/multibanco/references", r.URL.Path)
		assert.Equal(t, "api-secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "multibanco:ord-1:2990:1772409600", r.Header.Get("Idempotency-Key"))

		raw, _ := io.ReadAll(r.Body)
		var req map[string]string
		require.NoError(t, sonic.Unmarshal(raw, &req))
		assert.Equal(t, "MBK-1", req["mb_key"])
		assert.Equal(t, "ord-1", req["order_id"])
		assert.Equal(t, "29.90", req["amount"])
		assert.Equal(t, "2026-03-02", req["expiry_date"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"req-77","status":"pending","entity":"11604","reference":"123456789","amount":"29.90","expiry_date":"2026-03-02"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, resilience.CircuitBreakerConfig{})
	expires := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	payment, err := client.CreateMultibanco(context.Background(), usecase.PaymentRequest{
		OrderID:     "ord-1",
		AmountCents: 2990,
		Email:       "ana@example.com",
		ExpiresAt:   expires,
	})
	require.NoError(t, err)
	assert.Equal(t, "req-77", payment.ProviderRef)
	assert.Equal(t, "11604", payment.Entity)
	assert.Equal(t, "123456789", payment.Reference)
	require.NotNil(t, payment.ExpiresAt)
	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC), *payment.ExpiresAt)
}

func TestClientCreateMBWay_RejectedRequest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mbway/requests", r.URL.Path)
		_, _ = w.Write([]byte(`{"request_id":"req-9","status":"rejected","message":"phone not registered"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, resilience.CircuitBreakerConfig{})
	_, err := client.CreateMBWay(context.Background(), usecase.PaymentRequest{
		OrderID:     "ord-2",
		AmountCents: 850,
		Phone:       "351#912345678",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone not registered")
}

func TestClientCreateMBWay_RequiresPhone(t *testing.T) {
	t.Parallel()

	client := newTestClient("http://127.0.0.1:1", 0, resilience.CircuitBreakerConfig{})
	_, err := client.CreateMBWay(context.Background(), usecase.PaymentRequest{OrderID: "ord-2", AmountCents: 850})
	require.Error(t, err)
}

func TestClientGetStatus_MapsProviderVocabulary(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/req-77", r.URL.Path)
		_, _ = w.Write([]byte(`{"request_id":"req-77","status":"Settled","amount":"29,90","paid_at":"2026-03-01T12:30:00Z"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, resilience.CircuitBreakerConfig{})
	status, err := client.GetStatus(context.Background(), "req-77")
	require.NoError(t, err)
	assert.Equal(t, shop.PaymentPaid, status.Status)
	assert.Equal(t, int64(2990), status.AmountCents)
	require.NotNil(t, status.PaidAt)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC), *status.PaidAt)
}

func TestClientGetStatus_UnknownStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"request_id":"req-1","status":"teleported"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, resilience.CircuitBreakerConfig{})
	_, err := client.GetStatus(context.Background(), "req-1")
	require.Error(t, err)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"request_id":"req-1","status":"pending"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 2, resilience.CircuitBreakerConfig{})
	status, err := client.GetStatus(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, shop.PaymentPending, status.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid key"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 3, resilience.CircuitBreakerConfig{})
	_, err := client.GetStatus(context.Background(), "req-1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errProviderTransient))
	assert.Contains(t, err.Error(), "invalid key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientCircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, 0, resilience.CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenMaxReq:   1,
	})

	for i := 0; i < 2; i++ {
		_, err := client.GetStatus(context.Background(), "req-1")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errProviderTransient))
	}

	_, err := client.GetStatus(context.Background(), "req-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, usecase.ErrDependencyUnavailable))
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedactBodyMasksKeysAndPersonalData(t *testing.T) {
	t.Parallel()

	raw, err := sonic.Marshal(mbwayRequest{
		MBWayKey: "MBW-1",
		OrderID:  "ord-1",
		Amount:   "8.50",
		Phone:    "351#912345678",
		Email:    "ana@example.com",
	})
	require.NoError(t, err)

	redacted := redactBody(raw)
	assert.NotContains(t, redacted, "MBW-1")
	assert.NotContains(t, redacted, "912345678")
	assert.NotContains(t, redacted, "ana@example.com")
	assert.Contains(t, redacted, "ord-1")

	preview := buildCurlPreview(http.MethodPost, "https://provider.test/mbway/requests", "mbway:ord-1:850", redacted)
	assert.True(t, strings.HasPrefix(preview, "curl -X POST 'https://provider.test/mbway/requests'"))
	assert.Contains(t, preview, "X-Api-Key: ***")
}
