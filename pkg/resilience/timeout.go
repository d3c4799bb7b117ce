package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the timeout hierarchy, outermost first:
//
//	HTTP handler (60s)
//	  notification / action processing (50s)
//	    gateway call (30s)
//	      single retry attempt (10s)
//
// Each layer must finish before its parent times out.
type TimeoutConfig struct {
	HTTPHandler time.Duration
	Processing  time.Duration
	GatewayCall time.Duration
	SingleRetry time.Duration
	LockWait    time.Duration // waiting for a per transaction lock
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 60 * time.Second,
		Processing:  50 * time.Second,
		GatewayCall: 30 * time.Second,
		SingleRetry: 10 * time.Second,
		LockWait:    15 * time.Second,
	}
}

// TestTimeoutConfig returns shorter timeouts for testing
func TestTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 5 * time.Second,
		Processing:  4 * time.Second,
		GatewayCall: 2 * time.Second,
		SingleRetry: 1 * time.Second,
		LockWait:    1 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// ProcessingContext bounds a whole notification or admin action
func (tc *TimeoutConfig) ProcessingContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Processing)
}

// GatewayContext bounds one logical gateway operation including retries
func (tc *TimeoutConfig) GatewayContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.GatewayCall)
}

// RetryAttemptContext creates a context for a single retry attempt
func (tc *TimeoutConfig) RetryAttemptContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.SingleRetry)
}

// LockContext bounds the wait for a per transaction lock
func (tc *TimeoutConfig) LockContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.LockWait)
}
