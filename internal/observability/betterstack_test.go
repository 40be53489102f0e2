package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/config"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

type shippedLogs struct {
	mu       sync.Mutex
	requests int
	auth     string
	entries  []map[string]any
}

func newBetterStackServer(t *testing.T, sink *shippedLogs) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]any
		_ = json.Unmarshal(body, &batch)

		sink.mu.Lock()
		sink.requests++
		sink.auth = r.Header.Get("Authorization")
		sink.entries = append(sink.entries, batch...)
		sink.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)
	return server
}

func testLogConfig(endpoint string) config.Config {
	return config.Config{
		ServiceName:         "plus-predictor-api",
		AppEnv:              config.EnvDev,
		LogLevel:            logging.LevelInfo,
		BetterStackEnabled:  true,
		BetterStackEndpoint: endpoint,
		BetterStackToken:    "secret-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
	}
}

func TestNewLogger_ShipsErrorsInBatches(t *testing.T) {
	t.Parallel()

	sink := &shippedLogs{}
	server := newBetterStackServer(t, sink)

	var stdout bytes.Buffer
	logger, shutdown, err := NewLogger(testLogConfig(server.URL), &stdout)
	require.NoError(t, err)

	logger.ErrorContext(context.Background(), "reconcile failed", "payment_id", "pay-1")
	logger.ErrorContext(context.Background(), "reconcile failed", "payment_id", "pay-2")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.GreaterOrEqual(t, sink.requests, 1)
	assert.Equal(t, "Bearer secret-token", sink.auth)
	require.Len(t, sink.entries, 2)
	assert.Equal(t, "pay-1", sink.entries[0]["payment_id"])
	assert.Equal(t, "plus-predictor-api", sink.entries[0]["service"])
	assert.Contains(t, stdout.String(), "reconcile failed")
}

func TestNewLogger_RespectsMinLevel(t *testing.T) {
	t.Parallel()

	sink := &shippedLogs{}
	server := newBetterStackServer(t, sink)

	logger, shutdown, err := NewLogger(testLogConfig(server.URL), io.Discard)
	require.NoError(t, err)

	logger.InfoContext(context.Background(), "info log should not be shipped")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, shutdown(ctx))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Zero(t, sink.requests)
}

func TestNewLogger_RequiresEndpoint(t *testing.T) {
	cfg := testLogConfig("  ")
	_, _, err := NewLogger(cfg, io.Discard)
	require.Error(t, err)
}

func TestNormalizeBetterStackEndpoint(t *testing.T) {
	assert.Equal(t, "https://in.logs.betterstack.com", normalizeBetterStackEndpoint("in.logs.betterstack.com"))
	assert.Equal(t, "http://localhost:9000", normalizeBetterStackEndpoint(" http://localhost:9000 "))
	assert.Empty(t, normalizeBetterStackEndpoint(""))
}
