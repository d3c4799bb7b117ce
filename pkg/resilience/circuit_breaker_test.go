package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func testBreaker(isFailure func(error) bool) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:         3,
		Timeout:             50 * time.Millisecond,
		MaxRequestsHalfOpen: 1,
		IsFailure:           isFailure,
	})
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := testBreaker(nil)

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errBoom })
	}

	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	called := false
	err := cb.Call(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("fn must not run while open")
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := testBreaker(nil)

	_ = cb.Call(func() error { return errBoom })
	_ = cb.Call(func() error { return errBoom })
	_ = cb.Call(func() error { return nil })

	if cb.Failures() != 0 {
		t.Errorf("expected failures reset, got %d", cb.Failures())
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := testBreaker(nil)
	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errBoom })
	}

	time.Sleep(60 * time.Millisecond)

	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("probe should pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed after successful probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(nil)
	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errBoom })
	}
	time.Sleep(60 * time.Millisecond)

	_ = cb.Call(func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Errorf("expected open after failed probe, got %s", cb.State())
	}
}

func TestCircuitBreaker_IgnoresClassifiedErrors(t *testing.T) {
	declined := errors.New("declined")
	cb := testBreaker(func(err error) bool { return !errors.Is(err, declined) })

	for i := 0; i < 10; i++ {
		_ = cb.Call(func() error { return declined })
	}

	if cb.State() != StateClosed {
		t.Errorf("business errors must not open the breaker, got %s", cb.State())
	}
}

func TestCircuitBreaker_StateChangeHook(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     time.Hour,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Call(func() error { return errBoom })

	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := testBreaker(nil)
	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return errBoom })
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("expected closed after reset, got %s", cb.State())
	}
}
