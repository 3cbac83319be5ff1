package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/platform/logger"
	"github.com/melodia/melodia-api/internal/store"
)

// ArtifactStore implements the store.ArtifactStore interface using a
// PostgreSQL database as the storage backend.
type ArtifactStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewArtifactStore creates a new PostgreSQL implementation of the
// store.ArtifactStore interface.
// If logger is nil, a default logger will be used.
func NewArtifactStore(db store.DBTX, logger *slog.Logger) *ArtifactStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ArtifactStore{
		db:     db,
		logger: logger.With(slog.String("component", "artifact_store")),
	}
}

// Ensure ArtifactStore implements store.ArtifactStore interface
var _ store.ArtifactStore = (*ArtifactStore)(nil)

// Create implements store.ArtifactStore.Create.
// Returns store.ErrArtifactExists when an artifact already exists for
// the prompt (unique constraint on prompt_id).
func (s *ArtifactStore) Create(ctx context.Context, artifact *domain.Artifact) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := artifact.Validate(); err != nil {
		log.Warn("artifact validation failed during create",
			slog.String("error", err.Error()),
			slog.String("artifact_id", artifact.ID.String()))
		return err
	}

	query := `
		INSERT INTO artifacts (id, title, url, size_bytes, duration_seconds, prompt_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		artifact.ID,
		artifact.Title,
		artifact.URL,
		artifact.SizeBytes,
		artifact.DurationSeconds,
		artifact.PromptID,
		artifact.UserID,
		artifact.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("artifact already exists for prompt",
				slog.String("prompt_id", artifact.PromptID.String()))
			return fmt.Errorf("%w: %v", store.ErrArtifactExists, err)
		}

		log.Error("failed to create artifact",
			slog.String("error", err.Error()),
			slog.String("artifact_id", artifact.ID.String()),
			slog.String("prompt_id", artifact.PromptID.String()))
		return mapError(err)
	}

	log.Info("artifact created",
		slog.String("artifact_id", artifact.ID.String()),
		slog.String("prompt_id", artifact.PromptID.String()))
	return nil
}

// GetByID implements store.ArtifactStore.GetByID.
func (s *ArtifactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	query := `
		SELECT id, title, url, size_bytes, duration_seconds, prompt_id, user_id, created_at
		FROM artifacts
		WHERE id = $1
	`
	return s.getOne(ctx, query, id)
}

// GetByPromptID implements store.ArtifactStore.GetByPromptID.
func (s *ArtifactStore) GetByPromptID(ctx context.Context, promptID uuid.UUID) (*domain.Artifact, error) {
	query := `
		SELECT id, title, url, size_bytes, duration_seconds, prompt_id, user_id, created_at
		FROM artifacts
		WHERE prompt_id = $1
	`
	return s.getOne(ctx, query, promptID)
}

// WithTx implements store.ArtifactStore.WithTx.
func (s *ArtifactStore) WithTx(tx *sql.Tx) store.ArtifactStore {
	return &ArtifactStore{
		db:     tx,
		logger: s.logger,
	}
}

func (s *ArtifactStore) getOne(ctx context.Context, query string, arg any) (*domain.Artifact, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var artifact domain.Artifact
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&artifact.ID,
		&artifact.Title,
		&artifact.URL,
		&artifact.SizeBytes,
		&artifact.DurationSeconds,
		&artifact.PromptID,
		&artifact.UserID,
		&artifact.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrArtifactNotFound
		}
		log.Error("failed to get artifact",
			slog.String("error", err.Error()))
		return nil, mapError(err)
	}

	return &artifact, nil
}
