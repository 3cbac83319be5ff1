package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ShutdownTimeout bounds how long graceful shutdown waits for
	// in-flight requests and workers before exiting.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// PipelineConfig contains the knobs of the asynchronous
// prompt-to-artifact pipeline.
type PipelineConfig struct {
	// WorkerCount determines how many concurrent workers process prompts.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// ReconcileInterval is how often the reconciliation poller re-scans
	// the store for pending prompts that never reached the scheduler.
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval" validate:"required"`

	// RateLimitWindow is the trailing interval over which per-user
	// submissions are counted for admission control.
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window" validate:"required"`
}

// GenerationConfig contains settings for the artifact generation step.
// GeminiAPIKey is optional; without it the synthetic renderer is used
// on its own.
type GenerationConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
}
