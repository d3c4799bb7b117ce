package observability

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Readiness flips to not ready when shutdown starts so load balancers drain the instance.
// While ready, Dependency (typically a database ping) must also pass.
type Readiness struct {
	Dependency CheckFunc
	ready      atomic.Bool
}

// SetReady marks the instance ready or draining
func (r *Readiness) SetReady(v bool) { r.ready.Store(v) }

// Handler serves the readiness probe
func (r *Readiness) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if !r.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("draining"))
			return
		}
		if r.Dependency != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := r.Dependency(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ready"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}

// RegisterHandlers mounts /metrics, /health and /ready on mux
func RegisterHandlers(mux *http.ServeMux, healthChecker *HealthChecker, readiness *Readiness) {
	mux.Handle("/metrics", promhttp.Handler())
	if healthChecker != nil {
		mux.HandleFunc("/health", healthChecker.HealthHandler())
	}
	if readiness != nil {
		mux.HandleFunc("/ready", readiness.Handler())
	}
}

// StartMetricsServer serves the observability endpoints on a separate port
func StartMetricsServer(port string, healthChecker *HealthChecker, readiness *Readiness, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	RegisterHandlers(mux, healthChecker, readiness)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	return server
}

// ShutdownMetricsServer gracefully shuts down the metrics server
func ShutdownMetricsServer(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
