package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDequeueOrdersByPriority(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	low := uuid.New()
	high := uuid.New()
	mid := uuid.New()

	require.NoError(t, s.Enqueue(low, 0))
	require.NoError(t, s.Enqueue(high, 10))
	require.NoError(t, s.Enqueue(mid, 5))

	ctx := context.Background()

	first, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, high, first.PromptID)

	second, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, mid, second.PromptID)

	third, err := s.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, low, third.PromptID)
}

func TestDequeueIsFIFOWithinPriority(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	ids := make([]uuid.UUID, 5)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, s.Enqueue(ids[i], 10))
	}

	ctx := context.Background()
	for i := range ids {
		job, err := s.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids[i], job.PromptID, "job %d out of order", i)
	}
}

func TestEnqueueDeduplicatesQueuedPrompts(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	id := uuid.New()
	require.NoError(t, s.Enqueue(id, 0))
	require.NoError(t, s.Enqueue(id, 0))
	assert.Equal(t, 1, s.Len())

	// Once dequeued the prompt may be enqueued again.
	_, err := s.Dequeue(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(id, 0))
	assert.Equal(t, 1, s.Len())
}

func TestDequeueBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)
	id := uuid.New()

	done := make(chan Job, 1)
	go func() {
		job, err := s.Dequeue(context.Background())
		if err == nil {
			done <- job
		}
	}()

	// Give the consumer time to park before producing.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Enqueue(id, 3))

	select {
	case job := <-done:
		assert.Equal(t, id, job.PromptID)
		assert.Equal(t, 3, job.Priority)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not wake up after enqueue")
	}
}

func TestDequeueRespectsContextCancellation(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Dequeue(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue did not observe context cancellation")
	}
}

func TestCloseUnblocksWaiters(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	const waiters = 4
	errCh := make(chan error, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			_, err := s.Dequeue(context.Background())
			errCh <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	s.Close()

	for i := 0; i < waiters; i++ {
		select {
		case err := <-errCh:
			assert.ErrorIs(t, err, ErrSchedulerClosed)
		case <-time.After(2 * time.Second):
			t.Fatal("waiter was not released by close")
		}
	}

	assert.ErrorIs(t, s.Enqueue(uuid.New(), 0), ErrSchedulerClosed)
}

func TestCloseDrainsRemainingJobs(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)
	id := uuid.New()
	require.NoError(t, s.Enqueue(id, 0))

	s.Close()
	s.Close() // idempotent

	job, err := s.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, id, job.PromptID)

	_, err = s.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerClosed)
}

func TestConcurrentProducersAndConsumers(t *testing.T) {
	t.Parallel()

	s := NewPriorityScheduler(nil)

	const (
		producers       = 4
		jobsPerProducer = 50
	)
	total := producers * jobsPerProducer

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(priority int) {
			defer wg.Done()
			for i := 0; i < jobsPerProducer; i++ {
				_ = s.Enqueue(uuid.New(), priority)
			}
		}(p)
	}

	seen := make(chan uuid.UUID, total)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var consumers sync.WaitGroup
	for c := 0; c < 3; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				job, err := s.Dequeue(ctx)
				if err != nil {
					return
				}
				seen <- job.PromptID
			}
		}()
	}

	wg.Wait()

	unique := make(map[uuid.UUID]struct{}, total)
	for i := 0; i < total; i++ {
		select {
		case id := <-seen:
			unique[id] = struct{}{}
		case <-ctx.Done():
			t.Fatalf("only received %d of %d jobs", i, total)
		}
	}
	assert.Len(t, unique, total, "every job delivered exactly once")

	cancel()
	consumers.Wait()
	assert.Equal(t, 0, s.Len())
}
