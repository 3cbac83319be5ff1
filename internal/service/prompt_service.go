package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/ratelimit"
	"github.com/melodia/melodia-api/internal/store"
	"github.com/melodia/melodia-api/internal/task"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// PromptService implements the submission flow: resolve the caller's
// tier, enforce the rate limit, persist the prompt as PENDING and hand
// it to the scheduler. The persisted row is the durable record; the
// enqueue is best effort because the reconciliation poller re-dispatches
// anything still pending.
type PromptService struct {
	prompts       store.PromptStore
	artifacts     store.ArtifactStore
	subscriptions store.SubscriptionStore
	limiter       *ratelimit.Limiter
	enqueuer      task.Enqueuer
	logger        *slog.Logger
}

// NewPromptService creates a PromptService.
// If logger is nil, a default logger will be used.
func NewPromptService(
	prompts store.PromptStore,
	artifacts store.ArtifactStore,
	subscriptions store.SubscriptionStore,
	limiter *ratelimit.Limiter,
	enqueuer task.Enqueuer,
	logger *slog.Logger,
) (*PromptService, error) {
	if prompts == nil {
		return nil, errors.New("prompt store cannot be nil")
	}
	if artifacts == nil {
		return nil, errors.New("artifact store cannot be nil")
	}
	if subscriptions == nil {
		return nil, errors.New("subscription store cannot be nil")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter cannot be nil")
	}
	if enqueuer == nil {
		return nil, errors.New("enqueuer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PromptService{
		prompts:       prompts,
		artifacts:     artifacts,
		subscriptions: subscriptions,
		limiter:       limiter,
		enqueuer:      enqueuer,
		logger:        logger.With(slog.String("component", "prompt_service")),
	}, nil
}

// Submit accepts a prompt for asynchronous processing. On success the
// returned prompt is PENDING; the caller learns the outcome later via
// polling or the websocket notification.
//
// Throttled submissions return *ratelimit.LimitExceededError; invalid
// input returns the domain validation error.
func (s *PromptService) Submit(ctx context.Context, userID uuid.UUID, text string) (*domain.Prompt, error) {
	tier, err := s.subscriptions.GetTier(ctx, userID)
	if err != nil {
		return nil, NewPromptServiceError("submit", "failed to resolve subscription tier", err)
	}

	if err := s.limiter.Allow(ctx, userID, tier); err != nil {
		var limitErr *ratelimit.LimitExceededError
		if errors.As(err, &limitErr) {
			return nil, err
		}
		return nil, NewPromptServiceError("submit", "rate limit check failed", err)
	}

	prompt, err := domain.NewPrompt(userID, text, domain.PriorityWeight(tier))
	if err != nil {
		return nil, err
	}

	if err := s.prompts.Create(ctx, prompt); err != nil {
		return nil, NewPromptServiceError("submit", "failed to persist prompt", err)
	}

	// Dispatch failure is not a submission failure: the prompt is
	// already durable and reconciliation will pick it up.
	if err := s.enqueuer.Enqueue(prompt.ID, prompt.Priority); err != nil {
		s.logger.Warn("failed to enqueue prompt, leaving to reconciliation",
			slog.String("prompt_id", prompt.ID.String()),
			slog.String("error", err.Error()))
	}

	s.logger.Info("prompt submitted",
		slog.String("prompt_id", prompt.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("tier", string(tier)),
		slog.Int("priority", prompt.Priority))

	return prompt, nil
}

// GetPrompt returns a user's prompt and, when completed, its artifact.
// Returns store.ErrPromptNotFound for unknown IDs and ErrNotOwned when
// the prompt belongs to someone else.
func (s *PromptService) GetPrompt(ctx context.Context, userID, promptID uuid.UUID) (*domain.Prompt, *domain.Artifact, error) {
	prompt, err := s.prompts.GetByID(ctx, promptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil, err
		}
		return nil, nil, NewPromptServiceError("get", "failed to load prompt", err)
	}

	if prompt.UserID != userID {
		return nil, nil, fmt.Errorf("%w: prompt %s", ErrNotOwned, promptID)
	}

	var artifact *domain.Artifact
	if prompt.ArtifactID != nil {
		artifact, err = s.artifacts.GetByID(ctx, *prompt.ArtifactID)
		if err != nil && !store.IsNotFoundError(err) {
			return nil, nil, NewPromptServiceError("get", "failed to load artifact", err)
		}
	}

	return prompt, artifact, nil
}

// ListPrompts returns a page of the user's prompts, newest first.
// A non-positive limit applies the default page size.
func (s *PromptService) ListPrompts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Prompt, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	prompts, err := s.prompts.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, NewPromptServiceError("list", "failed to list prompts", err)
	}
	return prompts, nil
}
