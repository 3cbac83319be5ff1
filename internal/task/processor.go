package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/events"
	"github.com/melodia/melodia-api/internal/generation"
	"github.com/melodia/melodia-api/internal/store"
)

// Dependency validation errors
var (
	ErrNilPromptStore   = errors.New("prompt store cannot be nil")
	ErrNilArtifactStore = errors.New("artifact store cannot be nil")
	ErrNilGenerator     = errors.New("generator cannot be nil")
)

const (
	// Terminal status writes retry briefly so a blip in the database
	// does not strand a rendered artifact.
	terminalWriteRetries   = 3
	terminalWriteBaseDelay = 200 * time.Millisecond
)

// Processor drives a single prompt through the processing state machine:
// claim it, render it, record the terminal state, notify the owner.
//
// Every step tolerates duplicate dispatch. A prompt that has vanished or
// that another worker already claimed is skipped without error, so the
// same prompt ID may safely arrive from the API, the reconciliation
// sweep, and a second process instance at once.
type Processor struct {
	prompts   store.PromptStore
	artifacts store.ArtifactStore
	generator generation.Generator
	publisher events.Publisher
	logger    *slog.Logger
}

// NewProcessor creates a Processor. publisher may be nil, in which case
// no notifications are sent. If logger is nil, a default logger will be
// used.
func NewProcessor(
	prompts store.PromptStore,
	artifacts store.ArtifactStore,
	generator generation.Generator,
	publisher events.Publisher,
	logger *slog.Logger,
) (*Processor, error) {
	if prompts == nil {
		return nil, ErrNilPromptStore
	}
	if artifacts == nil {
		return nil, ErrNilArtifactStore
	}
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		prompts:   prompts,
		artifacts: artifacts,
		generator: generator,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "processor")),
	}, nil
}

// Process handles one prompt end to end. It returns an error only for
// infrastructure failures that left the prompt unresolved; benign
// outcomes (missing prompt, lost claim, generation failure recorded as
// FAILED) return nil.
func (p *Processor) Process(ctx context.Context, promptID uuid.UUID) error {
	log := p.logger.With(slog.String("prompt_id", promptID.String()))

	prompt, err := p.prompts.GetByID(ctx, promptID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("prompt not found, skipping")
			return nil
		}
		return fmt.Errorf("failed to load prompt: %w", err)
	}

	if prompt.IsTerminal() {
		log.Debug("prompt already terminal, skipping",
			slog.String("status", string(prompt.Status)))
		return nil
	}

	claimed, err := p.prompts.UpdateStatusIf(ctx, promptID,
		domain.PromptStatusPending, domain.PromptStatusProcessing, "")
	if err != nil {
		return fmt.Errorf("failed to claim prompt: %w", err)
	}
	if !claimed {
		log.Debug("claim lost, another worker owns the prompt")
		return nil
	}

	log.Info("processing prompt",
		slog.Int("priority", prompt.Priority))

	artifact, genErr := p.generator.GenerateArtifact(ctx, prompt)
	if genErr != nil {
		log.Error("generation failed",
			slog.String("error", genErr.Error()))
		return p.markFailed(ctx, prompt, genErr.Error())
	}

	return p.complete(ctx, prompt, artifact)
}

// complete records the artifact and flips the prompt to COMPLETED.
func (p *Processor) complete(ctx context.Context, prompt *domain.Prompt, artifact *domain.Artifact) error {
	log := p.logger.With(slog.String("prompt_id", prompt.ID.String()))

	err := p.withTerminalRetry(ctx, func(ctx context.Context) error {
		return p.artifacts.Create(ctx, artifact)
	})
	if err != nil {
		if errors.Is(err, store.ErrArtifactExists) {
			log.Debug("artifact already recorded, skipping completion")
			return nil
		}
		return p.markFailed(ctx, prompt, fmt.Sprintf("failed to store artifact: %v", err))
	}

	var completed bool
	err = p.withTerminalRetry(ctx, func(ctx context.Context) error {
		var err error
		completed, err = p.prompts.CompleteWithArtifact(ctx, prompt.ID, artifact.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	if !completed {
		log.Debug("prompt no longer processing, completion skipped")
		return nil
	}

	log.Info("prompt completed",
		slog.String("artifact_id", artifact.ID.String()))

	p.notifyCompleted(ctx, prompt, artifact)
	return nil
}

// markFailed flips the prompt to FAILED with the given reason.
func (p *Processor) markFailed(ctx context.Context, prompt *domain.Prompt, reason string) error {
	log := p.logger.With(slog.String("prompt_id", prompt.ID.String()))

	var marked bool
	err := p.withTerminalRetry(ctx, func(ctx context.Context) error {
		var err error
		marked, err = p.prompts.UpdateStatusIf(ctx, prompt.ID,
			domain.PromptStatusProcessing, domain.PromptStatusFailed, reason)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record failure: %w", err)
	}
	if !marked {
		log.Debug("prompt no longer processing, failure mark skipped")
		return nil
	}

	log.Info("prompt failed",
		slog.String("reason", reason))

	p.notifyFailed(ctx, prompt, reason)
	return nil
}

// withTerminalRetry retries transient store failures around terminal
// writes. Domain-level refusals pass through immediately.
func (p *Processor) withTerminalRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(terminalWriteRetries, retry.NewExponential(terminalWriteBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if store.IsDuplicateError(err) || store.IsNotFoundError(err) ||
			errors.Is(err, store.ErrInvalidEntity) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Notification delivery is strictly best effort. The prompt's terminal
// state is already durable before these run, and no outcome here may
// change it.

func (p *Processor) notifyCompleted(ctx context.Context, prompt *domain.Prompt, artifact *domain.Artifact) {
	if p.publisher == nil {
		return
	}

	event, err := events.NewCompletedEvent(prompt.ID, artifact)
	if err != nil {
		p.logger.Warn("failed to build completion event",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
		return
	}

	if err := p.publisher.Publish(ctx, prompt.UserID, event); err != nil {
		p.logger.Warn("failed to deliver completion event",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
	}
}

func (p *Processor) notifyFailed(ctx context.Context, prompt *domain.Prompt, reason string) {
	if p.publisher == nil {
		return
	}

	event, err := events.NewFailedEvent(prompt.ID, reason)
	if err != nil {
		p.logger.Warn("failed to build failure event",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
		return
	}

	if err := p.publisher.Publish(ctx, prompt.UserID, event); err != nil {
		p.logger.Warn("failed to deliver failure event",
			slog.String("error", err.Error()),
			slog.String("prompt_id", prompt.ID.String()))
	}
}
