package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/scry-adaptive/internal/api"
	"github.com/phrazzld/scry-adaptive/internal/config"
	"github.com/phrazzld/scry-adaptive/internal/domain/integrator"
	"github.com/phrazzld/scry-adaptive/internal/domain/plan"
	"github.com/phrazzld/scry-adaptive/internal/domain/srs"
	"github.com/phrazzld/scry-adaptive/internal/events"
	"github.com/phrazzld/scry-adaptive/internal/platform/keylock"
	"github.com/phrazzld/scry-adaptive/internal/platform/postgres"
	"github.com/phrazzld/scry-adaptive/internal/service/analysis"
	"github.com/phrazzld/scry-adaptive/internal/service/diagnostic"
	"github.com/phrazzld/scry-adaptive/internal/service/planning"
	"github.com/phrazzld/scry-adaptive/internal/service/review"
	"github.com/phrazzld/scry-adaptive/internal/store"
	goredis "github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	stores     store.Stores
	transactor store.Transactor
	locker     keylock.Locker

	eventEmitter *events.InMemoryEventEmitter

	diagnosticService diagnostic.Service
	reviewService     review.Service
	planningService   planning.Service

	router http.Handler
}

// newApplication creates a new application instance with all dependencies initialized.
// The database connection must already be established.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.stores = postgres.NewStores(db, logger)
	app.transactor = store.NewSQLTransactor(db, app.stores)

	if cfg.Redis.Addr != "" {
		rdb, err := keylock.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = rdb
		app.locker = keylock.NewRedisLocker(rdb, cfg.Redis.LockTTL, logger)
		logger.Info("using redis key locks", slog.String("addr", cfg.Redis.Addr))
	} else {
		app.locker = keylock.NewMemoryLocker()
		logger.Info("using in-process key locks")
	}

	scheduler, err := srs.NewDefaultService()
	if err != nil {
		return nil, fmt.Errorf("failed to create SRS service: %w", err)
	}
	integ := integrator.New(cfg.Integrator)

	// Completed sessions are analyzed into per-domain abilities.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(analysis.NewHandler(app.stores, app.transactor, logger))

	app.diagnosticService = diagnostic.NewService(
		app.stores,
		app.transactor,
		app.locker,
		app.eventEmitter,
		cfg.Diagnostic,
		logger,
	)
	app.reviewService = review.NewService(
		app.stores,
		app.transactor,
		app.locker,
		scheduler,
		integ,
		logger,
	)
	app.planningService = planning.NewService(
		app.stores,
		plan.NewDefaultChain(cfg.Planner, logger),
		integ,
		logger,
	)

	app.router = api.NewRouter(api.Handlers{
		Sessions: api.NewSessionHandler(app.diagnosticService, logger),
		Reviews:  api.NewReviewHandler(app.reviewService, logger),
		Plans:    api.NewPlanHandler(app.planningService, logger),
	}, logger)

	logger.Info("application initialized successfully")
	return app, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down and releases resources.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()

	if err := app.startHTTPServer(ctx, app.router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
