package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/ratelimit"
	"github.com/melodia/melodia-api/internal/store"
	"github.com/melodia/melodia-api/internal/task"
)

// stubTiers resolves tiers from a fixed map, defaulting to free.
type stubTiers map[uuid.UUID]domain.Tier

func (s stubTiers) GetTier(_ context.Context, userID uuid.UUID) (domain.Tier, error) {
	if tier, ok := s[userID]; ok {
		return tier, nil
	}
	return domain.TierFree, nil
}

// recordingEnqueuer captures enqueued dispatches and can fail on demand.
type recordingEnqueuer struct {
	jobs []struct {
		promptID uuid.UUID
		priority int
	}
	err error
}

func (e *recordingEnqueuer) Enqueue(promptID uuid.UUID, priority int) error {
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, struct {
		promptID uuid.UUID
		priority int
	}{promptID, priority})
	return nil
}

type serviceFixture struct {
	svc       *PromptService
	prompts   *task.MemoryPromptStore
	artifacts *task.MemoryArtifactStore
	tiers     stubTiers
	enqueuer  *recordingEnqueuer
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		prompts:   task.NewMemoryPromptStore(),
		artifacts: task.NewMemoryArtifactStore(),
		tiers:     stubTiers{},
		enqueuer:  &recordingEnqueuer{},
	}

	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), time.Minute, nil)

	svc, err := NewPromptService(f.prompts, f.artifacts, f.tiers, limiter, f.enqueuer, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestSubmitPersistsPendingPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	prompt, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
	require.NoError(t, err)

	assert.Equal(t, domain.PromptStatusPending, prompt.Status)
	assert.Equal(t, userID, prompt.UserID)
	assert.Equal(t, domain.PriorityWeight(domain.TierFree), prompt.Priority)

	stored, err := f.prompts.GetByID(ctx, prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusPending, stored.Status)

	require.Len(t, f.enqueuer.jobs, 1)
	assert.Equal(t, prompt.ID, f.enqueuer.jobs[0].promptID)
	assert.Equal(t, prompt.Priority, f.enqueuer.jobs[0].priority)
}

func TestSubmitAssignsPaidPriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	f.tiers[userID] = domain.TierPaid

	prompt, err := f.svc.Submit(context.Background(), userID, "create an upbeat anthem")
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityWeight(domain.TierPaid), prompt.Priority)
}

func TestSubmitRejectsInvalidText(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), uuid.New(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyPromptText)
	assert.Empty(t, f.enqueuer.jobs)
}

func TestSubmitEnforcesRateLimit(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	ceiling := domain.RateLimitCeiling(domain.TierFree)
	for i := 0; i < ceiling; i++ {
		_, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
		require.NoError(t, err, "request %d", i)
	}

	_, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
	var limitErr *ratelimit.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, ceiling, limitErr.Ceiling)

	// The denied submission must not have been persisted.
	prompts, listErr := f.svc.ListPrompts(ctx, userID, maxListLimit, 0)
	require.NoError(t, listErr)
	assert.Len(t, prompts, ceiling)
}

func TestSubmitSurvivesEnqueueFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.enqueuer.err = errors.New("queue closed")

	prompt, err := f.svc.Submit(context.Background(), uuid.New(), "create a slow piano ballad")
	require.NoError(t, err, "submission succeeds even when dispatch fails")
	assert.Equal(t, domain.PromptStatusPending, prompt.Status)
}

func TestGetPrompt(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
	require.NoError(t, err)

	prompt, artifact, err := f.svc.GetPrompt(ctx, userID, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, prompt.ID)
	assert.Nil(t, artifact, "no artifact before completion")
}

func TestGetPromptIncludesArtifactWhenCompleted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
	require.NoError(t, err)

	rendered, err := domain.NewArtifact(submitted.ID, userID,
		"Relaxing Jazz Melody", "https://example.com/audio/x.mp3", 2048, 120)
	require.NoError(t, err)
	require.NoError(t, f.artifacts.Create(ctx, rendered))

	claimed, err := f.prompts.UpdateStatusIf(ctx, submitted.ID,
		domain.PromptStatusPending, domain.PromptStatusProcessing, "")
	require.NoError(t, err)
	require.True(t, claimed)
	completed, err := f.prompts.CompleteWithArtifact(ctx, submitted.ID, rendered.ID)
	require.NoError(t, err)
	require.True(t, completed)

	prompt, artifact, err := f.svc.GetPrompt(ctx, userID, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, prompt.Status)
	require.NotNil(t, artifact)
	assert.Equal(t, rendered.ID, artifact.ID)
}

func TestGetPromptNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, _, err := f.svc.GetPrompt(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrPromptNotFound)
}

func TestGetPromptRejectsForeignOwner(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	submitted, err := f.svc.Submit(ctx, uuid.New(), "create a relaxing jazz melody")
	require.NoError(t, err)

	_, _, err = f.svc.GetPrompt(ctx, uuid.New(), submitted.ID)
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestListPromptsPagination(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	userID := uuid.New()
	f.tiers[userID] = domain.TierPaid
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.svc.Submit(ctx, userID, "create a relaxing jazz melody")
		require.NoError(t, err)
	}

	page, err := f.svc.ListPrompts(ctx, userID, 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := f.svc.ListPrompts(ctx, userID, 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	// Other users see nothing.
	other, err := f.svc.ListPrompts(ctx, uuid.New(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}
