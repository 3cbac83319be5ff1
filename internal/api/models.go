package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
)

// SubmitPromptRequest is the payload for submitting a prompt.
type SubmitPromptRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000"`
}

// ArtifactResponse is the client-facing projection of an artifact.
type ArtifactResponse struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	SizeBytes       int64     `json:"sizeBytes"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PromptResponse is the client-facing projection of a prompt.
type PromptResponse struct {
	ID            uuid.UUID         `json:"id"`
	Text          string            `json:"text"`
	Status        string            `json:"status"`
	Priority      int               `json:"priority"`
	FailureReason string            `json:"failureReason,omitempty"`
	Artifact      *ArtifactResponse `json:"artifact,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// PromptListResponse is a page of a user's prompts.
type PromptListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// NewPromptResponse converts domain objects into the API projection.
// artifact may be nil.
func NewPromptResponse(prompt *domain.Prompt, artifact *domain.Artifact) PromptResponse {
	resp := PromptResponse{
		ID:            prompt.ID,
		Text:          prompt.Text,
		Status:        string(prompt.Status),
		Priority:      prompt.Priority,
		FailureReason: prompt.FailureReason,
		CreatedAt:     prompt.CreatedAt,
		UpdatedAt:     prompt.UpdatedAt,
	}
	if artifact != nil {
		resp.Artifact = &ArtifactResponse{
			ID:              artifact.ID,
			Title:           artifact.Title,
			URL:             artifact.URL,
			SizeBytes:       artifact.SizeBytes,
			DurationSeconds: artifact.DurationSeconds,
			CreatedAt:       artifact.CreatedAt,
		}
	}
	return resp
}
