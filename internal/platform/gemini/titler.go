package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"

	"github.com/melodia/melodia-api/internal/config"
	"github.com/melodia/melodia-api/internal/generation"
)

const (
	// titleInstruction asks for a bare title so the response needs no
	// structured parsing. The model still occasionally wraps the answer
	// in quotes, which sanitizeTitle strips.
	titleInstruction = "Suggest a short, evocative title for a piece of music described as: %q. " +
		"Respond with the title only, no punctuation around it and no explanation."

	maxTitleAttempts  = 3
	retryBaseDelay    = 500 * time.Millisecond
	maxResponseLength = 120
)

// Titler implements generation.TitleProvider using Google's Gemini API.
type Titler struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// Ensure Titler implements the generation.TitleProvider interface
var _ generation.TitleProvider = (*Titler)(nil)

// NewTitler creates a new instance of Titler with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: Generation configuration containing the API key and model name
//
// Returns:
//   - A properly initialized Titler or an error if initialization fails
func NewTitler(ctx context.Context, logger *slog.Logger, cfg config.GenerationConfig) (*Titler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Titler{
		logger: logger.With(slog.String("component", "gemini_titler")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Title implements generation.TitleProvider.Title.
//
// Transient API failures are retried with exponential backoff. Responses
// blocked by safety filters or otherwise unusable are returned as permanent
// errors and are not retried.
func (t *Titler) Title(ctx context.Context, promptText string) (string, error) {
	if strings.TrimSpace(promptText) == "" {
		return "", ErrEmptyPromptText
	}

	instruction := fmt.Sprintf(titleInstruction, promptText)

	var title string
	backoff := retry.WithMaxRetries(maxTitleAttempts-1, retry.NewExponential(retryBaseDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(instruction), nil)
		if err != nil {
			t.logger.Warn("gemini title request failed",
				slog.String("error", err.Error()))
			return retry.RetryableError(fmt.Errorf("%w: %v", generation.ErrTransientFailure, err))
		}

		title, err = extractTitle(resp)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	t.logger.Debug("gemini produced title",
		slog.String("title", title))
	return title, nil
}

// extractTitle pulls a usable title out of a model response, classifying
// unusable responses as permanent generation errors.
func extractTitle(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: title request blocked", generation.ErrContentBlocked)
	}

	title := sanitizeTitle(resp.Text())
	if title == "" {
		return "", fmt.Errorf("%w: %v", generation.ErrInvalidResponse, ErrEmptyTitle)
	}
	return title, nil
}

// sanitizeTitle normalizes model output to a single plain line.
func sanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if idx := strings.IndexByte(title, '\n'); idx >= 0 {
		title = strings.TrimSpace(title[:idx])
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)
	if len(title) > maxResponseLength {
		title = strings.TrimSpace(title[:maxResponseLength])
	}
	return title
}
