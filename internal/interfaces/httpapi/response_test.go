package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/plus-predictor/internal/domain/prediction"
	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	"github.com/riskibarqy/plus-predictor/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestWriteError_HidesInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("query products: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Fatalf("internal error detail leaked: %s", rec.Body.String())
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{name: "locked wins over forbidden", err: fmt.Errorf("%w: %w", usecase.ErrForbidden, prediction.ErrLocked), wantStatus: http.StatusForbidden, wantReason: "predictionLocked"},
		{name: "hidden", err: fmt.Errorf("%w: %w", usecase.ErrForbidden, prediction.ErrHidden), wantStatus: http.StatusForbidden, wantReason: "predictionsHidden"},
		{name: "insufficient stock", err: fmt.Errorf("%w: %w", usecase.ErrConflict, shop.ErrInsufficientStock), wantStatus: http.StatusConflict, wantReason: "insufficientStock"},
		{name: "amount mismatch", err: fmt.Errorf("%w: %w", usecase.ErrInvalidInput, shop.ErrAmountMismatch), wantStatus: http.StatusBadRequest, wantReason: "amountMismatch"},
		{name: "invalid input", err: usecase.ErrInvalidInput, wantStatus: http.StatusBadRequest, wantReason: "invalidInput"},
		{name: "not found", err: fmt.Errorf("%w: fixture", usecase.ErrNotFound), wantStatus: http.StatusNotFound, wantReason: "notFound"},
		{name: "unauthorized", err: usecase.ErrUnauthorized, wantStatus: http.StatusUnauthorized, wantReason: "unauthorized"},
		{name: "forbidden", err: usecase.ErrForbidden, wantStatus: http.StatusForbidden, wantReason: "forbidden"},
		{name: "conflict", err: usecase.ErrConflict, wantStatus: http.StatusConflict, wantReason: "conflict"},
		{name: "dependency", err: usecase.ErrDependencyUnavailable, wantStatus: http.StatusServiceUnavailable, wantReason: "dependencyUnavailable"},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantReason: "internalError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(context.Background(), tt.err)
			if got.HTTPStatus != tt.wantStatus || got.Reason != tt.wantReason {
				t.Fatalf("mapError(%v)=%d/%s want %d/%s", tt.err, got.HTTPStatus, got.Reason, tt.wantStatus, tt.wantReason)
			}
		})
	}
}

func TestWebhookAmount_AcceptsNumberOrString(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		`{"amount":"45.00"}`: "45.00",
		`{"amount":45.5}`:    "45.5",
		`{"amount":12}`:      "12",
		`{"amount":null}`:    "",
	}
	for payload, want := range cases {
		var req paymentWebhookRequest
		require.NoError(t, sonic.Unmarshal([]byte(payload), &req), payload)
		assert.Equal(t, want, string(req.Amount), payload)
	}
}
