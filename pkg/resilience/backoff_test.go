package resilience

import (
	"math"
	"testing"
	"time"
)

func TestDefaultExponentialBackoff(t *testing.T) {
	backoff := DefaultExponentialBackoff()

	if backoff.BaseDelay != 200*time.Millisecond {
		t.Errorf("Expected BaseDelay = 200ms, got %v", backoff.BaseDelay)
	}
	if backoff.MaxDelay != 5*time.Second {
		t.Errorf("Expected MaxDelay = 5s, got %v", backoff.MaxDelay)
	}
	if backoff.Multiplier != 2.0 {
		t.Errorf("Expected Multiplier = 2.0, got %f", backoff.Multiplier)
	}
	if backoff.Jitter != 0.1 {
		t.Errorf("Expected Jitter = 0.1, got %f", backoff.Jitter)
	}
}

func TestExponentialBackoff_NextDelay(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1 * time.Second}, // 1600ms capped
		{9, 1 * time.Second},
	}

	for _, tt := range tests {
		if delay := backoff.NextDelay(tt.attempt); delay != tt.expected {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, delay, tt.expected)
		}
	}
}

func TestExponentialBackoff_WithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.1,
	}

	for i := 0; i < 200; i++ {
		delay := backoff.NextDelay(1)
		if math.Abs(float64(delay-2*time.Second)) > float64(200*time.Millisecond) {
			t.Fatalf("delay %v outside 2s ±10%%", delay)
		}
	}
}

func TestExponentialBackoff_NegativeAttempt(t *testing.T) {
	backoff := DefaultExponentialBackoff()
	if delay := backoff.NextDelay(-1); delay != backoff.BaseDelay {
		t.Errorf("NextDelay(-1) = %v, want %v", delay, backoff.BaseDelay)
	}
}

func TestFixedBackoff(t *testing.T) {
	backoff := &FixedBackoff{Delay: 300 * time.Millisecond}
	for attempt := 0; attempt < 4; attempt++ {
		if delay := backoff.NextDelay(attempt); delay != 300*time.Millisecond {
			t.Errorf("NextDelay(%d) = %v, want 300ms", attempt, delay)
		}
	}
}
