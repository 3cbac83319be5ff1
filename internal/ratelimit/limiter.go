package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/store"
)

// LimitExceededError is returned when a submission is denied because the
// user has exhausted their sliding-window allowance. It carries the
// ceiling and window so the transport layer can surface them to the
// client.
type LimitExceededError struct {
	Ceiling int
	Window  time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Ceiling, e.Window)
}

// Limiter enforces per-user submission ceilings. The ceiling depends on
// the user's subscription tier; the admission bookkeeping is delegated
// to a store.RateLimitStore so the enforcement works identically over
// the in-memory store and the database-backed one.
type Limiter struct {
	store  store.RateLimitStore
	window time.Duration
	logger *slog.Logger
}

// NewLimiter creates a Limiter over the given admission store.
// If logger is nil, a default logger will be used.
func NewLimiter(s store.RateLimitStore, window time.Duration, logger *slog.Logger) *Limiter {
	if s == nil {
		panic("rate limit store cannot be nil")
	}
	if window <= 0 {
		window = domain.RateLimitWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Limiter{
		store:  s,
		window: window,
		logger: logger.With(slog.String("component", "rate_limiter")),
	}
}

// Allow records one submission attempt for the user and reports whether
// it is admitted. Denied attempts return a *LimitExceededError and leave
// no trace in the window, so being throttled never shrinks a user's
// future allowance.
func (l *Limiter) Allow(ctx context.Context, userID uuid.UUID, tier domain.Tier) error {
	ceiling := domain.RateLimitCeiling(tier)

	admitted, err := l.store.Admit(ctx, userID.String(), ceiling, l.window)
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}

	if !admitted {
		l.logger.Info("submission throttled",
			slog.String("user_id", userID.String()),
			slog.String("tier", string(tier)),
			slog.Int("ceiling", ceiling))
		return &LimitExceededError{Ceiling: ceiling, Window: l.window}
	}

	return nil
}
