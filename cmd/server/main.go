// Package main implements the entry point for the Melodia API server,
// which accepts music prompts and renders audio artifacts for them
// asynchronously.
package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/melodia/melodia-api/internal/config"
	"github.com/melodia/melodia-api/internal/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.Setup(cfg.Server)

	logg.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.Int("worker_count", cfg.Pipeline.WorkerCount),
		slog.Duration("reconcile_interval", cfg.Pipeline.ReconcileInterval))

	app, err := newApplication(context.Background(), cfg, logg)
	if err != nil {
		logg.Error("failed to initialize application",
			slog.String("error", err.Error()))
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.Run(); err != nil {
		logg.Error("server exited with error",
			slog.String("error", err.Error()))
		log.Fatalf("Server error: %v", err)
	}
}
