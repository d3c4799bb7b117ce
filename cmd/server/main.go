package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/genesis-reconciliation/internal/adapters/postgres"
	"github.com/kevin07696/genesis-reconciliation/internal/config"
	"github.com/kevin07696/genesis-reconciliation/pkg/middleware"
	"github.com/kevin07696/genesis-reconciliation/pkg/observability"
	"github.com/kevin07696/genesis-reconciliation/pkg/resilience"
	"github.com/kevin07696/genesis-reconciliation/pkg/security"
	"github.com/kevin07696/genesis-reconciliation/pkg/shutdown"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := security.NewLogger(cfg.Environment, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting genesis reconciliation service",
		zap.String("environment", cfg.Environment),
		zap.Bool("checkout_enabled", cfg.Checkout != nil),
		zap.Bool("direct_enabled", cfg.Direct != nil),
		zap.Int("port", cfg.Server.Port),
	)

	ctx := context.Background()

	dbPool, err := initDatabase(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, dbPool); err != nil {
			logger.Fatal("Failed to apply migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}

	secretManager, closeSecrets, err := initSecretManager(ctx, &cfg.Secrets, logger)
	if err != nil {
		logger.Fatal("Failed to initialize secret manager", zap.Error(err))
	}

	healthChecker := observability.NewHealthChecker(dbPool)
	readiness := &observability.Readiness{Dependency: dbPool.Ping}
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst, logger)
	tracker := shutdown.NewInFlightTracker("admin_actions", logger)
	timeouts := resilience.DefaultTimeoutConfig()

	deps := &serverDeps{
		cfg:         cfg,
		pool:        dbPool,
		logger:      logger,
		serviceLog:  security.NewZapLogger(logger, cfg.Debug),
		secrets:     secretManager,
		health:      healthChecker,
		rateLimiter: rateLimiter,
		tracker:     tracker,
		timeouts:    timeouts,
	}

	mux := http.NewServeMux()
	for _, m := range []*config.ModuleConfig{cfg.Checkout, cfg.Direct} {
		if m == nil {
			continue
		}
		v, err := deps.buildVariant(ctx, m)
		if err != nil {
			logger.Fatal("Failed to initialize module variant",
				zap.String("module", m.Module),
				zap.Error(err))
		}
		v.register(mux)
		logger.Info("Module variant enabled",
			zap.String("module", m.Module),
			zap.String("route_prefix", v.prefix),
			zap.String("gateway_environment", m.Environment))
	}
	observability.RegisterHandlers(mux, healthChecker, readiness)

	handler := middleware.Chain(mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Timeout(timeouts, logger),
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	metricsServer := observability.StartMetricsServer(strconv.Itoa(cfg.Server.MetricsPort), healthChecker, readiness, logger)
	logger.Info("Metrics server started", zap.Int("port", cfg.Server.MetricsPort))

	go func() {
		logger.Info("HTTP server listening", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()
	readiness.SetReady(true)

	// components stop in reverse registration order
	sm := shutdown.NewManager(logger, cfg.Server.ShutdownTimeout)
	sm.RegisterNoErr("database", dbPool.Close)
	if closeSecrets != nil {
		sm.Register("secret_manager", func(context.Context) error { return closeSecrets() })
	}
	sm.RegisterNoErr("rate_limiter", rateLimiter.Shutdown)
	sm.Register("metrics_server", func(context.Context) error {
		return observability.ShutdownMetricsServer(metricsServer)
	})
	sm.Register("http_server", httpServer.Shutdown)
	sm.Register("admin_actions", tracker.Shutdown)
	sm.RegisterNoErr("readiness", func() { readiness.SetReady(false) })

	sm.WaitForShutdown()
	logger.Info("Server stopped")
}

// initDatabase creates the pgx connection pool
func initDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection pool initialized",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int32("max_conns", cfg.MaxConns),
	)

	return pool, nil
}
