package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/melodia/melodia-api/internal/platform/logger"
	"github.com/melodia/melodia-api/internal/store"
)

// RateLimitStore implements the store.RateLimitStore sliding-window
// admission primitive on PostgreSQL. The prune-count-record sequence
// runs as one statement inside a transaction that first takes a
// per-key advisory lock, so concurrent submissions from the same user
// serialize on the key and can never overshoot the ceiling. Different
// keys never contend.
type RateLimitStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRateLimitStore creates a new PostgreSQL implementation of the
// store.RateLimitStore interface.
// If logger is nil, a default logger will be used.
func NewRateLimitStore(db *sql.DB, logger *slog.Logger) *RateLimitStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RateLimitStore{
		db:     db,
		logger: logger.With(slog.String("component", "rate_limit_store")),
	}
}

// Ensure RateLimitStore implements store.RateLimitStore interface
var _ store.RateLimitStore = (*RateLimitStore)(nil)

// admitQuery prunes expired events, counts what remains in the window,
// and records the new event only when the count is below the ceiling.
// All three steps share one snapshot, and the advisory lock taken
// before it serializes racing requests for the same key.
const admitQuery = `
	WITH pruned AS (
		DELETE FROM rate_limit_events
		WHERE user_key = $1 AND occurred_at < $2
	),
	current AS (
		SELECT count(*) AS n
		FROM rate_limit_events
		WHERE user_key = $1 AND occurred_at >= $2
	),
	recorded AS (
		INSERT INTO rate_limit_events (user_key, occurred_at)
		SELECT $1, $3
		FROM current
		WHERE current.n < $4
		RETURNING 1
	)
	SELECT EXISTS (SELECT 1 FROM recorded)
`

// Admit implements store.RateLimitStore.Admit.
// Denial has no side effect: the event is only recorded on admission.
func (s *RateLimitStore) Admit(
	ctx context.Context,
	key string,
	ceiling int,
	window time.Duration,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if ceiling <= 0 {
		return false, nil
	}

	now := time.Now().UTC()
	windowStart := now.Add(-window)

	var allowed bool
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to take admission lock: %w", err)
		}

		if err := tx.QueryRowContext(ctx, admitQuery, key, windowStart, now, ceiling).
			Scan(&allowed); err != nil {
			return fmt.Errorf("admission query failed: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("rate limit admission failed",
			slog.String("error", err.Error()),
			slog.String("key", key))
		return false, mapError(err)
	}

	if !allowed {
		log.Debug("rate limit denied",
			slog.String("key", key),
			slog.Int("ceiling", ceiling),
			slog.Duration("window", window))
	}

	return allowed, nil
}
