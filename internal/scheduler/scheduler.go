package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSchedulerClosed is returned once the scheduler has been closed and
// drained.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// Job is a unit of dispatch: a reference to a persisted prompt plus the
// priority it was admitted with. The prompt row remains the source of
// truth; losing a Job loses nothing that reconciliation cannot recover.
type Job struct {
	PromptID   uuid.UUID
	Priority   int
	EnqueuedAt time.Time

	// seq orders jobs of equal priority by arrival
	seq uint64
}

// jobHeap is a max-heap on priority with FIFO ordering inside a
// priority class.
type jobHeap []*Job

func (jh jobHeap) Len() int { return len(jh) }

func (jh jobHeap) Less(i, j int) bool {
	if jh[i].Priority == jh[j].Priority {
		return jh[i].seq < jh[j].seq
	}
	return jh[i].Priority > jh[j].Priority
}

func (jh jobHeap) Swap(i, j int) { jh[i], jh[j] = jh[j], jh[i] }

func (jh *jobHeap) Push(x any) {
	*jh = append(*jh, x.(*Job))
}

func (jh *jobHeap) Pop() any {
	old := *jh
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*jh = old[0 : n-1]
	return item
}

// PriorityScheduler is an in-memory, thread-safe priority queue that
// workers block on. Enqueue never blocks; Dequeue blocks until a job is
// available, the context is done, or the scheduler is closed and empty.
//
// A prompt already waiting in the queue is not enqueued twice, so the
// periodic reconciliation sweep can resubmit pending prompts without
// inflating the queue.
type PriorityScheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	heap   jobHeap
	queued map[uuid.UUID]struct{}
	seq    uint64
	closed bool
	logger *slog.Logger
}

// NewPriorityScheduler creates an empty scheduler.
// If logger is nil, a default logger will be used.
func NewPriorityScheduler(logger *slog.Logger) *PriorityScheduler {
	if logger == nil {
		logger = slog.Default()
	}

	s := &PriorityScheduler{
		queued: make(map[uuid.UUID]struct{}),
		logger: logger.With(slog.String("component", "scheduler")),
	}
	s.cond = sync.NewCond(&s.mu)
	heap.Init(&s.heap)
	return s
}

// Enqueue submits a prompt reference for dispatch. Higher priority jobs
// are dequeued first; equal priorities dequeue in arrival order.
// Enqueueing a prompt that is already queued is a no-op.
func (s *PriorityScheduler) Enqueue(promptID uuid.UUID, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	if _, exists := s.queued[promptID]; exists {
		s.logger.Debug("prompt already queued, skipping",
			slog.String("prompt_id", promptID.String()))
		return nil
	}

	s.seq++
	heap.Push(&s.heap, &Job{
		PromptID:   promptID,
		Priority:   priority,
		EnqueuedAt: time.Now().UTC(),
		seq:        s.seq,
	})
	s.queued[promptID] = struct{}{}

	s.logger.Debug("prompt enqueued",
		slog.String("prompt_id", promptID.String()),
		slog.Int("priority", priority),
		slog.Int("queue_len", s.heap.Len()))

	s.cond.Signal()
	return nil
}

// Dequeue removes and returns the highest-priority job, blocking until
// one is available. It returns ctx.Err() if the context ends first, and
// ErrSchedulerClosed once the scheduler is closed and drained.
func (s *PriorityScheduler) Dequeue(ctx context.Context) (Job, error) {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Job{}, err
		}
		if s.heap.Len() > 0 {
			job := heap.Pop(&s.heap).(*Job)
			delete(s.queued, job.PromptID)
			return *job, nil
		}
		if s.closed {
			return Job{}, ErrSchedulerClosed
		}
		s.cond.Wait()
	}
}

// Len reports how many jobs are currently waiting.
func (s *PriorityScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}

// Close stops the scheduler. Queued jobs can still be dequeued; once the
// queue drains, Dequeue returns ErrSchedulerClosed. Closing twice is
// safe.
func (s *PriorityScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.logger.Info("scheduler closed",
		slog.Int("jobs_remaining", s.heap.Len()))
	s.cond.Broadcast()
}
