package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC))
	b := NewCircuitBreakerWithClock(clock, 2, 5*time.Second, 1)

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

	clock.Advance(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := clockwork.NewFakeClock()
	b := NewCircuitBreakerWithClock(clock, 1, time.Second, 1)

	b.RecordFailure()
	clock.Advance(time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("second probe must wait for the first, got %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected failed probe to reopen, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteCountsOnlyFailures(t *testing.T) {
	b := NewCircuitBreaker(2, time.Minute, 1)
	errIgnored := errors.New("caller error")
	errDown := errors.New("dependency down")
	isFailure := func(err error) bool { return errors.Is(err, errDown) }

	for i := 0; i < 3; i++ {
		if err := b.Execute(func() error { return errIgnored }, isFailure); !errors.Is(err, errIgnored) {
			t.Fatalf("expected caller error, got %v", err)
		}
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("ignored errors must keep the circuit closed, got %s", state)
	}

	for i := 0; i < 2; i++ {
		_ = b.Execute(func() error { return errDown }, isFailure)
	}
	calls := 0
	err := b.Execute(func() error { calls++; return nil }, isFailure)
	if !errors.Is(err, ErrCircuitOpen) || calls != 0 {
		t.Fatalf("expected open circuit to reject the call, err=%v calls=%d", err, calls)
	}
}

func TestCircuitBreaker_NilExecutesDirectly(t *testing.T) {
	var b *CircuitBreaker
	if NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false}) != nil {
		t.Fatalf("disabled config must not build a breaker")
	}
	called := false
	if err := b.Execute(func() error { called = true; return nil }, nil); err != nil || !called {
		t.Fatalf("nil breaker must run fn, err=%v called=%v", err, called)
	}
}
