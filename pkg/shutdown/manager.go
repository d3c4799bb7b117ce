package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shutdown_duration_seconds",
		Help:    "Total time taken to shutdown gracefully",
		Buckets: []float64{1, 5, 10, 15, 20, 25, 30},
	})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shutdown_errors_total",
		Help: "Total number of shutdown errors by component",
	}, []string{"component"})
)

// ShutdownFunc stops one component within ctx
type ShutdownFunc func(context.Context) error

type component struct {
	name string
	fn   ShutdownFunc
}

// Manager stops registered components one at a time in reverse registration
// order, so the database registered first is closed after the HTTP server
// and any in-flight gateway work have drained.
type Manager struct {
	logger     *zap.Logger
	components []component
	mu         sync.Mutex
	once       sync.Once
	timeout    time.Duration
}

// NewManager creates a shutdown manager bounded by timeout
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{logger: logger, timeout: timeout}
}

// Register adds a component
func (sm *Manager) Register(name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.components = append(sm.components, component{name: name, fn: fn})
}

// RegisterCloser registers a component with a Close method
func (sm *Manager) RegisterCloser(name string, closer interface{ Close() error }) {
	sm.Register(name, func(context.Context) error { return closer.Close() })
}

// RegisterNoErr registers a shutdown function that cannot fail
func (sm *Manager) RegisterNoErr(name string, fn func()) {
	sm.Register(name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then shuts down
func (sm *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	sig := <-quit
	sm.logger.Info("Received shutdown signal",
		zap.String("signal", sig.String()),
		zap.Duration("timeout", sm.timeout))
	sm.Shutdown()
}

// Shutdown stops every component once and reports how many failed
func (sm *Manager) Shutdown() int {
	failed := 0
	sm.once.Do(func() {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
		defer cancel()

		sm.mu.Lock()
		components := append([]component(nil), sm.components...)
		sm.mu.Unlock()

		for i := len(components) - 1; i >= 0; i-- {
			c := components[i]
			if err := c.fn(ctx); err != nil {
				failed++
				shutdownErrors.WithLabelValues(c.name).Inc()
				sm.logger.Error("Component shutdown failed", zap.String("component", c.name), zap.Error(err))
				continue
			}
			sm.logger.Info("Component shut down", zap.String("component", c.name))
		}

		elapsed := time.Since(start)
		shutdownDuration.Observe(elapsed.Seconds())
		sm.logger.Info("Graceful shutdown completed",
			zap.Int("failed", failed),
			zap.Duration("elapsed", elapsed))
	})
	return failed
}
