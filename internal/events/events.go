package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
)

// EventType identifies the kind of prompt lifecycle event.
type EventType string

// Prompt lifecycle event types delivered to clients.
const (
	EventPromptCompleted EventType = "completed"
	EventPromptFailed    EventType = "failed"
)

// ErrInvalidEvent is returned when an event is missing required fields.
var ErrInvalidEvent = errors.New("invalid prompt event")

// ArtifactSummary is the client-facing projection of a rendered
// artifact, embedded in completion events.
type ArtifactSummary struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds int       `json:"durationSeconds"`
}

// PromptEvent notifies a user that one of their prompts reached a
// terminal state. Completion events carry the artifact summary; failure
// events carry the reason instead.
type PromptEvent struct {
	Type       EventType        `json:"type"`
	PromptID   uuid.UUID        `json:"promptId"`
	Artifact   *ArtifactSummary `json:"artifact,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// NewCompletedEvent builds the notification for a successfully rendered
// prompt.
func NewCompletedEvent(promptID uuid.UUID, artifact *domain.Artifact) (*PromptEvent, error) {
	if promptID == uuid.Nil {
		return nil, errors.Join(ErrInvalidEvent, errors.New("prompt ID cannot be nil"))
	}
	if artifact == nil {
		return nil, errors.Join(ErrInvalidEvent, errors.New("completed event requires an artifact"))
	}

	return &PromptEvent{
		Type:     EventPromptCompleted,
		PromptID: promptID,
		Artifact: &ArtifactSummary{
			ID:              artifact.ID,
			Title:           artifact.Title,
			URL:             artifact.URL,
			DurationSeconds: artifact.DurationSeconds,
		},
		OccurredAt: time.Now().UTC(),
	}, nil
}

// NewFailedEvent builds the notification for a prompt that could not be
// rendered.
func NewFailedEvent(promptID uuid.UUID, reason string) (*PromptEvent, error) {
	if promptID == uuid.Nil {
		return nil, errors.Join(ErrInvalidEvent, errors.New("prompt ID cannot be nil"))
	}
	if reason == "" {
		reason = "processing failed"
	}

	return &PromptEvent{
		Type:       EventPromptFailed,
		PromptID:   promptID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Publisher delivers prompt events to a user's connected clients.
// Delivery is best effort: implementations must treat an absent or
// unreachable recipient as a non-error, and callers must never let a
// delivery failure influence prompt state.
type Publisher interface {
	Publish(ctx context.Context, userID uuid.UUID, event *PromptEvent) error
}
