package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/store"
)

const (
	// DefaultReconcileInterval is how often the poller sweeps for
	// pending prompts that are not moving.
	DefaultReconcileInterval = 30 * time.Second

	// reconcileBatchLimit caps how many pending prompts one sweep loads.
	reconcileBatchLimit = 500
)

// Enqueuer is the slice of the scheduler the poller needs.
type Enqueuer interface {
	Enqueue(promptID uuid.UUID, priority int) error
}

// ReconciliationPoller periodically re-enqueues PENDING prompts. It is
// the safety net for dispatches lost to crashes or full restarts: the
// database is the source of truth, and anything still pending gets
// another trip through the queue. The scheduler deduplicates prompts
// that are already waiting, and workers no-op on prompts another worker
// claimed first, so sweeping is always safe.
type ReconciliationPoller struct {
	prompts  store.PromptStore
	enqueuer Enqueuer
	interval time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewReconciliationPoller creates a poller. A non-positive interval
// falls back to DefaultReconcileInterval. If logger is nil, a default
// logger will be used.
func NewReconciliationPoller(
	prompts store.PromptStore,
	enqueuer Enqueuer,
	interval time.Duration,
	logger *slog.Logger,
) *ReconciliationPoller {
	if prompts == nil {
		panic("prompt store cannot be nil")
	}
	if enqueuer == nil {
		panic("enqueuer cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &ReconciliationPoller{
		prompts:  prompts,
		enqueuer: enqueuer,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger.With(slog.String("component", "reconciliation_poller")),
	}
}

// Start runs an immediate sweep to recover work left over from a
// previous run, then sweeps on every tick until Stop is called.
func (r *ReconciliationPoller) Start() {
	r.logger.Info("starting reconciliation poller",
		slog.Duration("interval", r.interval))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.Sweep(r.ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(r.ctx)
			}
		}
	}()
}

// Stop halts the poller and waits for an in-flight sweep to finish.
func (r *ReconciliationPoller) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("reconciliation poller stopped")
}

// Sweep loads pending prompts and resubmits them for dispatch. Errors
// are logged, not returned; the next tick tries again.
func (r *ReconciliationPoller) Sweep(ctx context.Context) {
	pending, err := r.prompts.ListByStatus(ctx, domain.PromptStatusPending, reconcileBatchLimit)
	if err != nil {
		r.logger.Error("failed to list pending prompts",
			slog.String("error", err.Error()))
		return
	}

	if len(pending) == 0 {
		return
	}

	requeued := 0
	for _, prompt := range pending {
		if err := r.enqueuer.Enqueue(prompt.ID, prompt.Priority); err != nil {
			r.logger.Warn("failed to re-enqueue pending prompt",
				slog.String("prompt_id", prompt.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		requeued++
	}

	r.logger.Info("reconciliation sweep finished",
		slog.Int("pending_found", len(pending)),
		slog.Int("requeued", requeued))
}
