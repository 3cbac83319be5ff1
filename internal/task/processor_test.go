package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/events"
	"github.com/melodia/melodia-api/internal/store"
)

// stubGenerator renders a fixed artifact or fails on demand.
type stubGenerator struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (g *stubGenerator) GenerateArtifact(_ context.Context, prompt *domain.Prompt) (*domain.Artifact, error) {
	g.mu.Lock()
	g.calls++
	err := g.err
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return domain.NewArtifact(prompt.ID, prompt.UserID,
		"Stub Title", fmt.Sprintf("https://example.com/audio/%s.mp3", prompt.ID), 2048, 120)
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// capturePublisher records published events and can simulate delivery
// failures.
type capturePublisher struct {
	mu     sync.Mutex
	events []*events.PromptEvent
	users  []uuid.UUID
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, userID uuid.UUID, event *events.PromptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	p.users = append(p.users, userID)
	return nil
}

func (p *capturePublisher) published() []*events.PromptEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.PromptEvent(nil), p.events...)
}

func newTestProcessor(t *testing.T, gen *stubGenerator, pub events.Publisher) (*Processor, *MemoryPromptStore, *MemoryArtifactStore) {
	t.Helper()

	prompts := NewMemoryPromptStore()
	artifacts := NewMemoryArtifactStore()
	processor, err := NewProcessor(prompts, artifacts, gen, pub, nil)
	require.NoError(t, err)
	return processor, prompts, artifacts
}

func seedPrompt(t *testing.T, prompts *MemoryPromptStore, priority int) *domain.Prompt {
	t.Helper()

	prompt, err := domain.NewPrompt(uuid.New(), "create a relaxing jazz melody", priority)
	require.NoError(t, err)
	require.NoError(t, prompts.Create(context.Background(), prompt))
	return prompt
}

func TestNewProcessorValidation(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	artifacts := NewMemoryArtifactStore()
	gen := &stubGenerator{}

	_, err := NewProcessor(nil, artifacts, gen, nil, nil)
	assert.ErrorIs(t, err, ErrNilPromptStore)

	_, err = NewProcessor(prompts, nil, gen, nil, nil)
	assert.ErrorIs(t, err, ErrNilArtifactStore)

	_, err = NewProcessor(prompts, artifacts, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNilGenerator)
}

func TestProcessCompletesPrompt(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	processor, prompts, artifacts := newTestProcessor(t, &stubGenerator{}, pub)
	prompt := seedPrompt(t, prompts, 10)

	ctx := context.Background()
	require.NoError(t, processor.Process(ctx, prompt.ID))

	stored, err := prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, stored.Status)
	require.NotNil(t, stored.ArtifactID)

	artifact, err := artifacts.GetByPromptID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, *stored.ArtifactID, artifact.ID)
	assert.Equal(t, prompt.UserID, artifact.UserID)

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventPromptCompleted, published[0].Type)
	assert.Equal(t, prompt.ID, published[0].PromptID)
	require.NotNil(t, published[0].Artifact)
	assert.Equal(t, artifact.ID, published[0].Artifact.ID)
}

func TestProcessMarksFailedOnGenerationError(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	processor, prompts, artifacts := newTestProcessor(t,
		&stubGenerator{err: errors.New("model unavailable")}, pub)
	prompt := seedPrompt(t, prompts, 0)

	ctx := context.Background()
	require.NoError(t, processor.Process(ctx, prompt.ID))

	stored, err := prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusFailed, stored.Status)
	assert.Equal(t, "model unavailable", stored.FailureReason)
	assert.Nil(t, stored.ArtifactID)

	_, err = artifacts.GetByPromptID(ctx, prompt.ID)
	assert.ErrorIs(t, err, store.ErrArtifactNotFound)

	published := pub.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventPromptFailed, published[0].Type)
	assert.Equal(t, "model unavailable", published[0].Reason)
}

func TestProcessMissingPromptIsNoOp(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	processor, _, _ := newTestProcessor(t, gen, nil)

	assert.NoError(t, processor.Process(context.Background(), uuid.New()))
	assert.Zero(t, gen.callCount(), "generator must not run for a missing prompt")
}

func TestProcessLostClaimIsNoOp(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	processor, prompts, _ := newTestProcessor(t, gen, nil)
	prompt := seedPrompt(t, prompts, 0)

	ctx := context.Background()

	// Another worker already claimed the prompt.
	claimed, err := prompts.UpdateStatusIf(ctx, prompt.ID,
		domain.PromptStatusPending, domain.PromptStatusProcessing, "")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, processor.Process(ctx, prompt.ID))
	assert.Zero(t, gen.callCount(), "generator must not run without the claim")

	stored, err := prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusProcessing, stored.Status)
}

func TestProcessTerminalPromptIsNoOp(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{}
	pub := &capturePublisher{}
	processor, prompts, _ := newTestProcessor(t, gen, pub)
	prompt := seedPrompt(t, prompts, 0)

	ctx := context.Background()
	require.NoError(t, processor.Process(ctx, prompt.ID))
	require.Len(t, pub.published(), 1)

	// Reprocessing the completed prompt must not rerun generation or
	// publish a second event.
	require.NoError(t, processor.Process(ctx, prompt.ID))
	assert.Equal(t, 1, gen.callCount())
	assert.Len(t, pub.published(), 1)
}

func TestProcessNotificationFailureDoesNotAffectStatus(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{err: errors.New("socket gone")}
	processor, prompts, _ := newTestProcessor(t, &stubGenerator{}, pub)
	prompt := seedPrompt(t, prompts, 0)

	ctx := context.Background()
	require.NoError(t, processor.Process(ctx, prompt.ID))

	stored, err := prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, stored.Status)
}

func TestProcessRetriesTransientTerminalWriteFailures(t *testing.T) {
	t.Parallel()

	processor, prompts, _ := newTestProcessor(t, &stubGenerator{err: errors.New("bad prompt")}, nil)
	prompt := seedPrompt(t, prompts, 0)

	// First failure-mark attempt hits a transient store error; the retry
	// must still land the prompt in FAILED.
	prompts.UpdateStatusErrs = []error{nil, errors.New("connection reset")}

	ctx := context.Background()
	require.NoError(t, processor.Process(ctx, prompt.ID))

	stored, err := prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusFailed, stored.Status)
}

func TestProcessDuplicateArtifactSkipsCompletion(t *testing.T) {
	t.Parallel()

	pub := &capturePublisher{}
	processor, prompts, artifacts := newTestProcessor(t, &stubGenerator{}, pub)
	prompt := seedPrompt(t, prompts, 0)

	ctx := context.Background()

	// A previous run already stored an artifact for this prompt but
	// crashed before flipping the status; the prompt went back to
	// pending via reconciliation.
	existing, err := domain.NewArtifact(prompt.ID, prompt.UserID,
		"Existing", fmt.Sprintf("https://example.com/audio/%s.mp3", prompt.ID), 1024, 60)
	require.NoError(t, err)
	require.NoError(t, artifacts.Create(ctx, existing))

	require.NoError(t, processor.Process(ctx, prompt.ID))

	// No second artifact, no event; the prompt stays claimed for the
	// operator to resolve rather than being double-completed.
	assert.Empty(t, pub.published())
}
