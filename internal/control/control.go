// Package control wires configuration into a running retry policy service.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vietddude/retrypolicy/internal/core/config"
	"github.com/vietddude/retrypolicy/internal/core/retry"
	"github.com/vietddude/retrypolicy/internal/core/worker"
	"github.com/vietddude/retrypolicy/internal/health"
	redisclient "github.com/vietddude/retrypolicy/internal/infra/redis"
	"github.com/vietddude/retrypolicy/internal/infra/rpc/routing"
	"github.com/vietddude/retrypolicy/internal/infra/storage"
	"github.com/vietddude/retrypolicy/internal/infra/storage/memory"
	"github.com/vietddude/retrypolicy/internal/infra/storage/postgres"
)

// App owns the engine, the failed operation journal and the health server.
type App struct {
	cfg          *config.AppConfig
	engine       *retry.Engine
	journal      storage.FailedOperationRepository
	executor     *routing.Executor
	healthMon    *health.Monitor
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// New creates an App with all dependencies initialized.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	engine, err := cfg.Engine()
	if err != nil {
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	app := &App{
		cfg:       cfg,
		engine:    engine,
		healthMon: health.NewMonitor(nil, cfg.Server.DegradedAfter),
		log:       slog.Default().With("component", "control"),
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}
		app.db = db
		app.journal = postgres.NewFailedOperationRepo(db)
		app.healthMon.AddChecker("postgres", db)
		app.log.Info("Using PostgreSQL journal")

	case config.DriverRedis:
		client, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		app.redisClient = client
		app.journal = redisclient.NewFailedOperationRepo(client, cfg.Storage.Namespace, cfg.Redis.TTL)
		app.healthMon.AddChecker("redis", client)
		app.log.Info("Using Redis journal", "namespace", cfg.Storage.Namespace)

	default:
		app.journal = memory.NewFailedOperationRepo()
		app.log.Info("Using Memory journal")
	}

	app.healthMon.SetJournal(app.journal)
	app.executor = routing.NewExecutor(engine, cfg.Retry, routing.WithJournal(app.journal, cfg.Storage.Driver))
	app.healthServer = health.NewServer(app.healthMon, cfg.Server.Port)
	app.healthServer.ServePolicy(cfg.Retry)

	return app, nil
}

// Engine returns the configured retry engine.
func (a *App) Engine() *retry.Engine { return a.engine }

// Executor returns a retry executor that journals terminal failures.
func (a *App) Executor() *routing.Executor { return a.executor }

// Journal returns the failed operation repository.
func (a *App) Journal() storage.FailedOperationRepository { return a.journal }

// Start runs background components. It returns once they are launched.
func (a *App) Start(ctx context.Context) error {
	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}
	if a.cfg.Storage.Retention > 0 {
		go worker.NewPruner(a.cfg.Storage.Retention, a.journal).Start(ctx)
	}

	go func() {
		a.log.Info("Starting health server", "port", a.cfg.Server.Port)
		if err := a.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Health server failed", "error", err)
		}
	}()
	return nil
}

// Stop shuts down the server and closes storage connections.
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if err := a.healthServer.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("health server: %w", err))
	}
	a.Close()
	return errors.Join(errs...)
}

// Close releases storage connections without touching the server.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close redis", "error", err)
		}
	}
}
