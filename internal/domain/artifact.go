package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for Artifact
var (
	ErrEmptyArtifactID       = errors.New("artifact ID cannot be empty")
	ErrEmptyArtifactTitle    = errors.New("artifact title cannot be empty")
	ErrEmptyArtifactURL      = errors.New("artifact URL cannot be empty")
	ErrEmptyArtifactPromptID = errors.New("artifact prompt ID cannot be empty")
	ErrEmptyArtifactUserID   = errors.New("artifact user ID cannot be empty")
)

// Artifact is the generated result of a successfully processed prompt.
// It is created exactly once per completed prompt and is immutable
// after creation.
type Artifact struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	SizeBytes       int64     `json:"size_bytes"`
	DurationSeconds int       `json:"duration_seconds"`
	PromptID        uuid.UUID `json:"prompt_id"`
	UserID          uuid.UUID `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewArtifact creates a new Artifact for the given prompt.
// It generates a new UUID for the artifact ID and sets the creation timestamp.
// Returns an error if validation fails.
func NewArtifact(promptID, userID uuid.UUID, title, url string, sizeBytes int64, durationSeconds int) (*Artifact, error) {
	artifact := &Artifact{
		ID:              uuid.New(),
		Title:           title,
		URL:             url,
		SizeBytes:       sizeBytes,
		DurationSeconds: durationSeconds,
		PromptID:        promptID,
		UserID:          userID,
		CreatedAt:       time.Now().UTC(),
	}

	if err := artifact.Validate(); err != nil {
		return nil, err
	}

	return artifact, nil
}

// Validate checks if the Artifact has valid data.
// Returns an error if any field fails validation.
func (a *Artifact) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyArtifactID
	}

	if a.Title == "" {
		return ErrEmptyArtifactTitle
	}

	if a.URL == "" {
		return ErrEmptyArtifactURL
	}

	if a.PromptID == uuid.Nil {
		return ErrEmptyArtifactPromptID
	}

	if a.UserID == uuid.Nil {
		return ErrEmptyArtifactUserID
	}

	return nil
}
