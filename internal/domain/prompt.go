package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PromptStatus represents the processing state of a prompt
type PromptStatus string

// Possible prompt status values
const (
	PromptStatusPending    PromptStatus = "pending"
	PromptStatusProcessing PromptStatus = "processing"
	PromptStatusCompleted  PromptStatus = "completed"
	PromptStatusFailed     PromptStatus = "failed"
)

// Common validation errors for Prompt
var (
	ErrEmptyPromptID       = errors.New("prompt ID cannot be empty")
	ErrEmptyPromptUserID   = errors.New("prompt user ID cannot be empty")
	ErrEmptyPromptText     = errors.New("prompt text cannot be empty")
	ErrNegativePriority    = errors.New("prompt priority cannot be negative")
	ErrInvalidPromptStatus = errors.New("invalid prompt status")
)

// Prompt represents a text request submitted by a user to generate
// an audio artifact. It tracks both the original content and the
// processing state. ArtifactID is set exactly when the prompt reaches
// the completed status.
type Prompt struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Text       string       `json:"text"`
	Status     PromptStatus `json:"status"`
	Priority   int          `json:"priority"`
	ArtifactID *uuid.UUID   `json:"artifact_id,omitempty"`

	// FailureReason is recorded on failed transitions so the user can
	// see why generation did not produce an artifact.
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewPrompt creates a new Prompt with the given user ID, text and priority.
// It generates a new UUID for the prompt ID, trims the text, sets the status
// to pending, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewPrompt(userID uuid.UUID, text string, priority int) (*Prompt, error) {
	prompt := &Prompt{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      strings.TrimSpace(text),
		Status:    PromptStatusPending,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := prompt.Validate(); err != nil {
		return nil, err
	}

	return prompt, nil
}

// Validate checks if the Prompt has valid data.
// Returns an error if any field fails validation.
func (p *Prompt) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPromptID
	}

	if p.UserID == uuid.Nil {
		return ErrEmptyPromptUserID
	}

	if strings.TrimSpace(p.Text) == "" {
		return ErrEmptyPromptText
	}

	if p.Priority < 0 {
		return ErrNegativePriority
	}

	if !isValidPromptStatus(p.Status) {
		return ErrInvalidPromptStatus
	}

	return nil
}

// IsTerminal reports whether the prompt has reached a final state.
func (p *Prompt) IsTerminal() bool {
	return p.Status == PromptStatusCompleted || p.Status == PromptStatusFailed
}

// isValidPromptStatus checks if the given status is a valid PromptStatus.
func isValidPromptStatus(status PromptStatus) bool {
	switch status {
	case PromptStatusPending, PromptStatusProcessing, PromptStatusCompleted, PromptStatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a prompt may move from one status to another.
// Transitions are one-directional: pending → processing → completed|failed.
// A failed prompt may be returned to pending by retry policy.
func CanTransition(from, to PromptStatus) bool {
	switch from {
	case PromptStatusPending:
		return to == PromptStatusProcessing
	case PromptStatusProcessing:
		return to == PromptStatusCompleted || to == PromptStatusFailed
	case PromptStatusFailed:
		return to == PromptStatusPending
	default:
		return false
	}
}
