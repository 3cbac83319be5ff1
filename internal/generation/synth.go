package generation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/melodia/melodia-api/internal/domain"
)

const (
	// artifactURLFormat is the public location of a rendered artifact,
	// keyed by prompt ID so reprocessing a prompt overwrites in place.
	artifactURLFormat = "https://example.com/audio/%s.mp3"

	// Rendered output bounds. Durations land between 30 seconds and
	// just under five and a half minutes.
	minDurationSeconds = 30
	maxDurationSeconds = 329

	minSizeBytes = 1 << 20  // 1 MiB
	maxSizeBytes = 10 << 20 // 10 MiB

	maxTitleLength = 80
)

// titleCaser is safe for concurrent use.
var titleCaser = cases.Title(language.English)

// leadingDirectives are instruction prefixes users commonly type that
// carry no information for the artifact title.
var leadingDirectives = []string{
	"create a ",
	"create an ",
	"create ",
	"make a ",
	"make an ",
	"make ",
	"generate a ",
	"generate an ",
	"generate ",
}

// TitleFromPrompt derives a human-readable artifact title from the raw
// prompt text by dropping a leading instruction verb and title-casing
// the remainder. The result is truncated to a display-friendly length.
func TitleFromPrompt(text string) string {
	title := strings.TrimSpace(text)
	lower := strings.ToLower(title)
	for _, directive := range leadingDirectives {
		if strings.HasPrefix(lower, directive) {
			title = strings.TrimSpace(title[len(directive):])
			break
		}
	}
	if title == "" {
		title = "Untitled"
	}
	title = titleCaser.String(title)
	if len(title) > maxTitleLength {
		title = strings.TrimSpace(title[:maxTitleLength])
	}
	return title
}

// TitleProvider produces an artifact title for prompt text. It lets the
// synthesizer delegate titling to an LLM while keeping a local fallback.
type TitleProvider interface {
	Title(ctx context.Context, promptText string) (string, error)
}

// SynthGenerator is a Generator that renders artifact metadata locally.
// Actual audio synthesis happens out of band against the URL the
// artifact points at; this generator produces the catalog entry for it.
// An optional TitleProvider can supply richer titles, with
// TitleFromPrompt as the fallback when it is absent or fails.
type SynthGenerator struct {
	titles TitleProvider
	logger *slog.Logger
}

// Ensure SynthGenerator implements the Generator interface
var _ Generator = (*SynthGenerator)(nil)

// NewSynthGenerator creates a SynthGenerator. titles may be nil, in
// which case titles are derived directly from the prompt text.
// If logger is nil, a default logger will be used.
func NewSynthGenerator(titles TitleProvider, logger *slog.Logger) *SynthGenerator {
	if logger == nil {
		logger = slog.Default()
	}

	return &SynthGenerator{
		titles: titles,
		logger: logger.With(slog.String("component", "synth_generator")),
	}
}

// GenerateArtifact implements Generator.GenerateArtifact.
func (g *SynthGenerator) GenerateArtifact(ctx context.Context, prompt *domain.Prompt) (*domain.Artifact, error) {
	if prompt == nil {
		return nil, fmt.Errorf("%w: prompt cannot be nil", ErrGenerationFailed)
	}
	if err := prompt.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	title := g.resolveTitle(ctx, prompt.Text)
	url := fmt.Sprintf(artifactURLFormat, prompt.ID)
	sizeBytes := int64(minSizeBytes + rand.IntN(maxSizeBytes-minSizeBytes+1))
	durationSeconds := minDurationSeconds + rand.IntN(maxDurationSeconds-minDurationSeconds+1)

	artifact, err := domain.NewArtifact(prompt.ID, prompt.UserID, title, url, sizeBytes, durationSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	g.logger.Debug("rendered artifact metadata",
		slog.String("prompt_id", prompt.ID.String()),
		slog.String("title", title),
		slog.Int("duration_seconds", durationSeconds))

	return artifact, nil
}

func (g *SynthGenerator) resolveTitle(ctx context.Context, promptText string) string {
	if g.titles == nil {
		return TitleFromPrompt(promptText)
	}

	title, err := g.titles.Title(ctx, promptText)
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			g.logger.Warn("title provider failed, falling back to derived title",
				slog.String("error", err.Error()))
		}
		return TitleFromPrompt(promptText)
	}

	title = strings.TrimSpace(title)
	if len(title) > maxTitleLength {
		title = strings.TrimSpace(title[:maxTitleLength])
	}
	return title
}
