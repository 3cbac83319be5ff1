package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/melodia/melodia-api/internal/config"
	"github.com/melodia/melodia-api/internal/generation"
	"github.com/melodia/melodia-api/internal/platform/gemini"
	"github.com/melodia/melodia-api/internal/platform/postgres"
	"github.com/melodia/melodia-api/internal/platform/ws"
	"github.com/melodia/melodia-api/internal/ratelimit"
	"github.com/melodia/melodia-api/internal/scheduler"
	"github.com/melodia/melodia-api/internal/service"
	"github.com/melodia/melodia-api/internal/task"
)

// application bundles the wired components of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	sched   *scheduler.PriorityScheduler
	pool    *task.WorkerPool
	poller  *task.ReconciliationPoller
	hub     *ws.Hub
	prompts *service.PromptService
}

// newApplication connects the database, applies migrations and wires
// every component of the pipeline.
func newApplication(ctx context.Context, cfg *config.Config, logg *slog.Logger) (*application, error) {
	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, logg); err != nil {
		_ = db.Close()
		return nil, err
	}

	promptStore := postgres.NewPromptStore(db, logg)
	artifactStore := postgres.NewArtifactStore(db, logg)
	subscriptionStore := postgres.NewSubscriptionStore(db, logg)
	rateLimitStore := postgres.NewRateLimitStore(db, logg)

	limiter := ratelimit.NewLimiter(rateLimitStore, cfg.Pipeline.RateLimitWindow, logg)
	sched := scheduler.NewPriorityScheduler(logg)
	hub := ws.NewHub(logg)

	generator := newGenerator(ctx, cfg.Generation, logg)

	processor, err := task.NewProcessor(promptStore, artifactStore, generator, hub, logg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	pool := task.NewWorkerPool(sched, processor,
		task.WorkerPoolConfig{WorkerCount: cfg.Pipeline.WorkerCount}, logg)
	poller := task.NewReconciliationPoller(promptStore, sched,
		cfg.Pipeline.ReconcileInterval, logg)

	prompts, err := service.NewPromptService(
		promptStore, artifactStore, subscriptionStore, limiter, sched, logg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create prompt service: %w", err)
	}

	return &application{
		config:  cfg,
		logger:  logg,
		db:      db,
		sched:   sched,
		pool:    pool,
		poller:  poller,
		hub:     hub,
		prompts: prompts,
	}, nil
}

// newGenerator builds the artifact generator, with Gemini-backed titles
// when an API key is configured.
func newGenerator(ctx context.Context, cfg config.GenerationConfig, logg *slog.Logger) generation.Generator {
	var titles generation.TitleProvider
	if cfg.GeminiAPIKey != "" {
		titler, err := gemini.NewTitler(ctx, logg, cfg)
		if err != nil {
			logg.Warn("failed to initialize Gemini titler, using derived titles",
				slog.String("error", err.Error()))
		} else {
			titles = titler
		}
	}
	return generation.NewSynthGenerator(titles, logg)
}

// Run starts the pipeline and the HTTP server, then blocks until a
// shutdown signal arrives and the server has drained.
func (app *application) Run() error {
	app.pool.Start()
	app.poller.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server",
			slog.Int("port", app.config.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutdown signal received",
			slog.String("signal", sig.String()))
	case err := <-errCh:
		app.logger.Error("server failed",
			slog.String("error", err.Error()))
		app.stopPipeline()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed",
			slog.String("error", err.Error()))
	}

	app.stopPipeline()
	app.logger.Info("shutdown complete")
	return nil
}

// stopPipeline tears the pipeline down in dependency order: no new
// dispatches, drain the workers, drop the sockets, close the database.
func (app *application) stopPipeline() {
	app.poller.Stop()
	app.sched.Close()
	app.pool.Stop()
	app.hub.Close()

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database",
			slog.String("error", err.Error()))
	}
}
