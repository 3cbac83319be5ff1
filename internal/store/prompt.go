package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
)

// PromptStore defines the interface for prompt data persistence.
// It is the source of truth for the generation state machine; the
// conditional UpdateStatusIf operation is the mutual-exclusion point
// that keeps at most one worker active per prompt.
type PromptStore interface {
	// Create saves a new prompt to the store.
	// It handles domain validation internally.
	// Returns validation errors from the domain Prompt if data is invalid.
	Create(ctx context.Context, prompt *domain.Prompt) error

	// GetByID retrieves a prompt by its unique ID.
	// Returns ErrPromptNotFound if the prompt does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Prompt, error)

	// UpdateStatusIf atomically moves the prompt from expected to next
	// status. It reports false, without error, when the stored status no
	// longer matches expected or the prompt does not exist; the caller
	// treats that as a duplicate delivery and moves on.
	// A non-empty reason is recorded alongside failed transitions.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, next domain.PromptStatus, reason string) (bool, error)

	// CompleteWithArtifact records the artifact reference and moves the
	// prompt from processing to completed in one atomic update.
	// Reports false when the prompt is no longer in processing.
	CompleteWithArtifact(ctx context.Context, id uuid.UUID, artifactID uuid.UUID) (bool, error)

	// ListByStatus retrieves prompts with the given status, oldest first,
	// bounded by limit (a non-positive limit applies a default).
	ListByStatus(ctx context.Context, status domain.PromptStatus, limit int) ([]*domain.Prompt, error)

	// ListByUser retrieves a user's prompts, newest first, with
	// limit/offset pagination.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Prompt, error)

	// WithTx returns a new PromptStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) PromptStore
}
