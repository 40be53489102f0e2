package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker guards calls to a remote dependency (identity provider,
// payment provider). Methods are safe on a nil receiver, which never trips.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	state           CircuitState
	failures        int
	openedAt        time.Time
	probesInFlight  int
	probesSucceeded int
	now             func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	cfg := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{
		FailureThreshold: failureThreshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	})

	return &CircuitBreaker{
		failureThreshold: cfg.FailureThreshold,
		openTimeout:      cfg.OpenTimeout,
		halfOpenMaxReq:   cfg.HalfOpenMaxReq,
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// Allow reserves a slot for one call. Every successful Allow must be followed
// by exactly one RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.openTimeout {
			return ErrCircuitOpen
		}
		b.state = CircuitStateHalfOpen
		b.probesInFlight = 0
		b.probesSucceeded = 0
	}

	if b.state == CircuitStateHalfOpen {
		if b.probesInFlight >= b.halfOpenMaxReq {
			return ErrCircuitOpen
		}
		b.probesInFlight++
	}

	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		if b.probesInFlight > 0 {
			b.probesInFlight--
		}
		b.probesSucceeded++
		if b.probesSucceeded >= b.halfOpenMaxReq && b.probesInFlight == 0 {
			b.state = CircuitStateClosed
			b.failures = 0
			b.probesSucceeded = 0
			b.openedAt = time.Time{}
		}
	}
}

func (b *CircuitBreaker) RecordFailure() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			b.trip()
		}
	case CircuitStateHalfOpen:
		b.trip()
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

// Execute runs fn under the breaker. isFailure decides which errors count
// against the dependency; nil treats every error as a failure.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil {
		return CircuitStateClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) trip() {
	b.state = CircuitStateOpen
	b.openedAt = b.now()
	b.probesInFlight = 0
	b.probesSucceeded = 0
}
