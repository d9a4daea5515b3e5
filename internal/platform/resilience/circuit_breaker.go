package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// CircuitBreaker trips after a run of consecutive failures and lets a bounded
// number of probes through once the open timeout has passed.
type CircuitBreaker struct {
	clock     clockwork.Clock
	threshold int
	cooldown  time.Duration
	probes    int

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
	inFlight int
	passed   int
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	return NewCircuitBreakerWithClock(clockwork.NewRealClock(), failureThreshold, openTimeout, halfOpenMaxReq)
}

func NewCircuitBreakerWithClock(clock clockwork.Clock, failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	cfg := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{
		FailureThreshold: failureThreshold,
		OpenTimeout:      openTimeout,
		HalfOpenMaxReq:   halfOpenMaxReq,
	})
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CircuitBreaker{
		clock:     clock,
		threshold: cfg.FailureThreshold,
		cooldown:  cfg.OpenTimeout,
		probes:    cfg.HalfOpenMaxReq,
		state:     CircuitStateClosed,
	}
}

// Allow reserves a slot for one call. Every nil return must be followed by
// RecordSuccess or RecordFailure.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooledDown() {
		b.reset(CircuitStateHalfOpen)
	}

	switch b.state {
	case CircuitStateOpen:
		return ErrCircuitOpen
	case CircuitStateHalfOpen:
		if b.inFlight >= b.probes {
			return ErrCircuitOpen
		}
		b.inFlight++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != CircuitStateHalfOpen {
		b.failures = 0
		return
	}
	b.release()
	b.passed++
	if b.passed >= b.probes && b.inFlight == 0 {
		b.reset(CircuitStateClosed)
	}
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateClosed {
		b.failures++
		if b.failures < b.threshold {
			return
		}
	}
	b.release()
	b.reset(CircuitStateOpen)
}

func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen && b.cooledDown() {
		return CircuitStateHalfOpen
	}
	return b.state
}

// Execute runs fn when the breaker admits the call and records the outcome.
// isFailure decides which errors count against the dependency; nil counts all.
// A nil breaker just runs fn.
func (b *CircuitBreaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b == nil {
		return fn()
	}
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn()
	if err != nil && (isFailure == nil || isFailure(err)) {
		b.RecordFailure()
	} else {
		b.RecordSuccess()
	}
	return err
}

func (b *CircuitBreaker) cooledDown() bool {
	return b.clock.Since(b.openedAt) >= b.cooldown
}

func (b *CircuitBreaker) release() {
	if b.inFlight > 0 {
		b.inFlight--
	}
}

func (b *CircuitBreaker) reset(state CircuitState) {
	b.state = state
	b.failures = 0
	b.inFlight = 0
	b.passed = 0
	b.openedAt = time.Time{}
	if state == CircuitStateOpen {
		b.openedAt = b.clock.Now()
	}
}
