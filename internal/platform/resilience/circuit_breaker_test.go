package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected second half-open probe to be rejected, got %v", err)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonFailures(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute, 1)
	errClient := errors.New("bad request")
	errRemote := errors.New("upstream 502")

	err := b.Execute(func() error { return errClient }, func(err error) bool { return err == errRemote })
	if !errors.Is(err, errClient) {
		t.Fatalf("expected client error passthrough, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("client errors must not trip the breaker, got %s", state)
	}

	_ = b.Execute(func() error { return errRemote }, func(err error) bool { return err == errRemote })
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after remote failure, got %s", state)
	}

	called := false
	err = b.Execute(func() error { called = true; return nil }, nil)
	if !errors.Is(err, ErrCircuitOpen) || called {
		t.Fatalf("expected short-circuit, err=%v called=%v", err, called)
	}
}

func TestCircuitBreaker_NilAndDisabled(t *testing.T) {
	var b *CircuitBreaker
	if err := b.Allow(); err != nil {
		t.Fatalf("nil breaker must allow: %v", err)
	}
	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("nil breaker state = %s", state)
	}

	if got := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false}); got != nil {
		t.Fatalf("disabled config should yield nil breaker")
	}

	cfg := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	if cfg.FailureThreshold != 5 || cfg.OpenTimeout != 30*time.Second || cfg.HalfOpenMaxReq != 1 {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}
