package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/scheduler"
)

func TestSweepEnqueuesPendingPrompts(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	sched := scheduler.NewPriorityScheduler(nil)
	poller := NewReconciliationPoller(prompts, sched, time.Minute, nil)

	pending := seedPrompt(t, prompts, 10)
	seedPrompt(t, prompts, 0)

	ctx := context.Background()

	// Terminal and in-flight prompts are left alone.
	completed := seedPrompt(t, prompts, 0)
	_, err := prompts.UpdateStatusIf(ctx, completed.ID,
		domain.PromptStatusPending, domain.PromptStatusProcessing, "")
	require.NoError(t, err)

	poller.Sweep(ctx)
	assert.Equal(t, 2, sched.Len())

	// The paid-tier prompt comes out first.
	job, err := sched.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, job.PromptID)
	assert.Equal(t, 10, job.Priority)
}

func TestSweepIsIdempotentWhileQueued(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	sched := scheduler.NewPriorityScheduler(nil)
	poller := NewReconciliationPoller(prompts, sched, time.Minute, nil)

	seedPrompt(t, prompts, 0)

	ctx := context.Background()
	poller.Sweep(ctx)
	poller.Sweep(ctx)
	poller.Sweep(ctx)

	assert.Equal(t, 1, sched.Len(), "repeated sweeps must not duplicate queued prompts")
}

func TestPollerSweepsOnStartAndInterval(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	sched := scheduler.NewPriorityScheduler(nil)
	poller := NewReconciliationPoller(prompts, sched, 20*time.Millisecond, nil)

	first := seedPrompt(t, prompts, 0)

	poller.Start()
	defer poller.Stop()

	// The startup sweep picks up the pre-existing prompt.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	job, err := sched.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, job.PromptID)

	// A prompt created after startup is found by a later tick.
	second := seedPrompt(t, prompts, 5)
	job, err = sched.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, job.PromptID)
}

func TestPollerStopHalts(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	sched := scheduler.NewPriorityScheduler(nil)
	poller := NewReconciliationPoller(prompts, sched, 10*time.Millisecond, nil)

	poller.Start()
	poller.Stop()

	seedPrompt(t, prompts, 0)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, sched.Len(), "stopped poller must not enqueue")
}

type rejectingEnqueuer struct{ calls int }

func (e *rejectingEnqueuer) Enqueue(uuid.UUID, int) error {
	e.calls++
	return scheduler.ErrSchedulerClosed
}

func TestSweepToleratesEnqueueFailures(t *testing.T) {
	t.Parallel()

	prompts := NewMemoryPromptStore()
	enq := &rejectingEnqueuer{}
	poller := NewReconciliationPoller(prompts, enq, time.Minute, nil)

	seedPrompt(t, prompts, 0)
	seedPrompt(t, prompts, 0)

	poller.Sweep(context.Background())
	assert.Equal(t, 2, enq.calls, "sweep continues past individual failures")
}
