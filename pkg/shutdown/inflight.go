package shutdown

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// InFlightTracker counts requests that may be mid way through a gateway call.
// Once Shutdown starts no new work is admitted.
type InFlightTracker struct {
	logger   *zap.Logger
	name     string
	wg       sync.WaitGroup
	mu       sync.Mutex
	draining bool
}

// NewInFlightTracker creates a tracker
func NewInFlightTracker(name string, logger *zap.Logger) *InFlightTracker {
	return &InFlightTracker{name: name, logger: logger}
}

// Add admits one unit of work; false once draining
func (t *InFlightTracker) Add() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draining {
		return false
	}
	t.wg.Add(1)
	return true
}

// Done releases work admitted by Add
func (t *InFlightTracker) Done() {
	t.wg.Done()
}

// Middleware answers 503 while draining and tracks admitted requests
func (t *InFlightTracker) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.Add() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer t.Done()
		next.ServeHTTP(w, r)
	})
}

// Shutdown stops admitting work and waits for admitted work or ctx
func (t *InFlightTracker) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	t.draining = true
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		t.logger.Warn("In-flight work still running at shutdown deadline", zap.String("tracker", t.name))
		return ctx.Err()
	}
}
