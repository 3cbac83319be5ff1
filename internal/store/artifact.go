package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
)

// ArtifactStore defines the interface for artifact data persistence.
// Artifacts are immutable after creation.
type ArtifactStore interface {
	// Create saves a new artifact to the store.
	// Returns ErrArtifactExists if an artifact was already created for
	// the same prompt, and validation errors from the domain Artifact
	// if data is invalid.
	Create(ctx context.Context, artifact *domain.Artifact) error

	// GetByID retrieves an artifact by its unique ID.
	// Returns ErrArtifactNotFound if the artifact does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error)

	// GetByPromptID retrieves the artifact generated for a prompt.
	// Returns ErrArtifactNotFound if none exists.
	GetByPromptID(ctx context.Context, promptID uuid.UUID) (*domain.Artifact, error)

	// WithTx returns a new ArtifactStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ArtifactStore
}
