package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/platform/logger"
	"github.com/melodia/melodia-api/internal/store"
)

// defaultListLimit bounds ListByStatus scans when the caller passes a
// non-positive limit.
const defaultListLimit = 100

// PromptStore implements the store.PromptStore interface using a
// PostgreSQL database as the storage backend.
type PromptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPromptStore creates a new PostgreSQL implementation of the
// store.PromptStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPromptStore(db store.DBTX, logger *slog.Logger) *PromptStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PromptStore{
		db:     db,
		logger: logger.With(slog.String("component", "prompt_store")),
	}
}

// Ensure PromptStore implements store.PromptStore interface
var _ store.PromptStore = (*PromptStore)(nil)

// Create implements store.PromptStore.Create.
// It saves a new prompt to the database, handling domain validation.
func (s *PromptStore) Create(ctx context.Context, prompt *domain.Prompt) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := prompt.Validate(); err != nil {
		log.Warn("prompt validation failed during create",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
		return err
	}

	query := `
		INSERT INTO prompts (id, user_id, text, status, priority, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		prompt.ID,
		prompt.UserID,
		prompt.Text,
		prompt.Status,
		prompt.Priority,
		prompt.CreatedAt,
		prompt.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create prompt",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()),
			slog.String("user_id", prompt.UserID.String()))
		return mapError(err)
	}

	log.Info("prompt created",
		slog.String("prompt_id", prompt.ID.String()),
		slog.String("user_id", prompt.UserID.String()),
		slog.Int("priority", prompt.Priority))
	return nil
}

// GetByID implements store.PromptStore.GetByID.
// Returns store.ErrPromptNotFound if the prompt does not exist.
func (s *PromptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, text, status, priority, artifact_id, failure_reason, created_at, updated_at
		FROM prompts
		WHERE id = $1
	`

	prompt, err := scanPrompt(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("prompt not found", slog.String("prompt_id", id.String()))
			return nil, store.ErrPromptNotFound
		}
		log.Error("failed to get prompt by ID",
			slog.String("error", err.Error()),
			slog.String("prompt_id", id.String()))
		return nil, mapError(err)
	}

	return prompt, nil
}

// UpdateStatusIf implements store.PromptStore.UpdateStatusIf.
// The WHERE clause on the expected status makes the transition a
// compare-and-set: zero rows affected means another worker won the
// claim (or the prompt is gone), which the caller treats as a no-op.
func (s *PromptStore) UpdateStatusIf(
	ctx context.Context,
	id uuid.UUID,
	expected, next domain.PromptStatus,
	reason string,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE prompts
		SET status = $1, failure_reason = NULLIF($2, ''), updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := s.db.ExecContext(ctx, query, next, reason, time.Now().UTC(), id, expected)
	if err != nil {
		log.Error("failed to update prompt status",
			slog.String("error", err.Error()),
			slog.String("prompt_id", id.String()),
			slog.String("expected", string(expected)),
			slog.String("next", string(next)))
		return false, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Debug("conditional status update matched no rows",
			slog.String("prompt_id", id.String()),
			slog.String("expected", string(expected)),
			slog.String("next", string(next)))
		return false, nil
	}

	log.Info("prompt status updated",
		slog.String("prompt_id", id.String()),
		slog.String("status", string(next)))
	return true, nil
}

// CompleteWithArtifact implements store.PromptStore.CompleteWithArtifact.
// The artifact reference and the terminal status land in a single UPDATE
// so a crash can never leave a completed prompt without its artifact.
func (s *PromptStore) CompleteWithArtifact(
	ctx context.Context,
	id uuid.UUID,
	artifactID uuid.UUID,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE prompts
		SET status = $1, artifact_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		domain.PromptStatusCompleted,
		artifactID,
		time.Now().UTC(),
		id,
		domain.PromptStatusProcessing,
	)
	if err != nil {
		log.Error("failed to complete prompt",
			slog.String("error", err.Error()),
			slog.String("prompt_id", id.String()),
			slog.String("artifact_id", artifactID.String()))
		return false, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Debug("complete matched no processing row",
			slog.String("prompt_id", id.String()))
		return false, nil
	}

	log.Info("prompt completed",
		slog.String("prompt_id", id.String()),
		slog.String("artifact_id", artifactID.String()))
	return true, nil
}

// ListByStatus implements store.PromptStore.ListByStatus.
// Oldest prompts come first so the reconciliation poller re-enqueues
// work in submission order.
func (s *PromptStore) ListByStatus(
	ctx context.Context,
	status domain.PromptStatus,
	limit int,
) ([]*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `
		SELECT id, user_id, text, status, priority, artifact_id, failure_reason, created_at, updated_at
		FROM prompts
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, status, limit)
	if err != nil {
		log.Error("failed to query prompts by status",
			slog.String("error", err.Error()),
			slog.String("status", string(status)))
		return nil, mapError(err)
	}

	return collectPrompts(rows, log)
}

// ListByUser implements store.PromptStore.ListByUser.
func (s *PromptStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit, offset int,
) ([]*domain.Prompt, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, user_id, text, status, priority, artifact_id, failure_reason, created_at, updated_at
		FROM prompts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		log.Error("failed to query prompts by user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, mapError(err)
	}

	return collectPrompts(rows, log)
}

// WithTx implements store.PromptStore.WithTx.
func (s *PromptStore) WithTx(tx *sql.Tx) store.PromptStore {
	return &PromptStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrompt(row rowScanner) (*domain.Prompt, error) {
	var prompt domain.Prompt
	var status string
	var artifactID uuid.NullUUID
	var failureReason sql.NullString

	err := row.Scan(
		&prompt.ID,
		&prompt.UserID,
		&prompt.Text,
		&status,
		&prompt.Priority,
		&artifactID,
		&failureReason,
		&prompt.CreatedAt,
		&prompt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	prompt.Status = domain.PromptStatus(status)
	if artifactID.Valid {
		id := artifactID.UUID
		prompt.ArtifactID = &id
	}
	prompt.FailureReason = failureReason.String

	return &prompt, nil
}

func collectPrompts(rows *sql.Rows, log *slog.Logger) ([]*domain.Prompt, error) {
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	prompts := []*domain.Prompt{}
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			log.Error("failed to scan prompt row", slog.String("error", err.Error()))
			return nil, err
		}
		prompts = append(prompts, prompt)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return prompts, nil
}
