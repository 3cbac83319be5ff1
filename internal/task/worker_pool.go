package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/melodia/melodia-api/internal/scheduler"
)

// WorkerPool manages a pool of worker goroutines that pull jobs from
// the scheduler and run them through the Processor. It handles graceful
// shutdown and worker lifecycle.
type WorkerPool struct {
	sched     *scheduler.PriorityScheduler
	processor *Processor

	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 4,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration.
// If logger is nil, a default logger will be used.
func NewWorkerPool(
	sched *scheduler.PriorityScheduler,
	processor *Processor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) *WorkerPool {
	if sched == nil {
		panic("scheduler cannot be nil")
	}
	if processor == nil {
		panic("processor cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	workerCount := config.WorkerCount
	if workerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
		workerCount = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		sched:       sched,
		processor:   processor,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.With(slog.String("component", "worker_pool")),
	}
}

// Start launches the worker goroutines. It returns immediately.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool",
		slog.Int("worker_count", p.workerCount))

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to stop dequeuing and waits for them. A job
// already claimed keeps running to its terminal state; cancellation only
// unblocks workers parked in Dequeue.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker pulls jobs until the pool stops or the scheduler closes.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With(slog.Int("worker_id", id))
	log.Debug("worker started")

	for {
		job, err := p.sched.Dequeue(p.ctx)
		if err != nil {
			if errors.Is(err, scheduler.ErrSchedulerClosed) || errors.Is(err, context.Canceled) {
				log.Debug("worker stopping")
				return
			}
			log.Error("dequeue failed",
				slog.String("error", err.Error()))
			return
		}

		// The pool context governs dequeuing only. A claimed prompt must
		// reach COMPLETED or FAILED even during shutdown; aborting it
		// would strand the row in PROCESSING, where the poller cannot
		// see it.
		if err := p.processor.Process(context.WithoutCancel(p.ctx), job.PromptID); err != nil {
			log.Error("prompt processing failed",
				slog.String("prompt_id", job.PromptID.String()),
				slog.String("error", err.Error()))
		}
	}
}
