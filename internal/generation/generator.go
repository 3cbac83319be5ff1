package generation

import (
	"context"

	"github.com/melodia/melodia-api/internal/domain"
)

// Generator defines the interface for rendering an audio artifact from a
// prompt. This interface serves as a boundary between the application core
// and external AI/LLM services, following the hexagonal architecture pattern.
type Generator interface {
	// GenerateArtifact renders an audio artifact for the given prompt.
	// It returns a fully populated Artifact domain object or an error if
	// generation fails.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - prompt: The prompt to render; its ID and UserID are stamped onto
	//     the resulting artifact
	//
	// Returns:
	//   - A domain.Artifact pointer representing the rendered output
	//   - An error if the generation fails for any reason (see errors.go for
	//     specific types)
	GenerateArtifact(ctx context.Context, prompt *domain.Prompt) (*domain.Artifact, error)
}
