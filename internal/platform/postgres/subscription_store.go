package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
	"github.com/melodia/melodia-api/internal/platform/logger"
	"github.com/melodia/melodia-api/internal/store"
)

// SubscriptionStore implements the store.SubscriptionStore interface
// using a PostgreSQL database as the storage backend.
type SubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSubscriptionStore creates a new PostgreSQL implementation of the
// store.SubscriptionStore interface.
// If logger is nil, a default logger will be used.
func NewSubscriptionStore(db store.DBTX, logger *slog.Logger) *SubscriptionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_store")),
	}
}

// Ensure SubscriptionStore implements store.SubscriptionStore interface
var _ store.SubscriptionStore = (*SubscriptionStore)(nil)

// GetTier implements store.SubscriptionStore.GetTier.
// Users without a subscription record are on the free tier.
func (s *SubscriptionStore) GetTier(ctx context.Context, userID uuid.UUID) (domain.Tier, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT tier
		FROM subscriptions
		WHERE user_id = $1
	`

	var tier string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&tier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no subscription record, defaulting to free tier",
				slog.String("user_id", userID.String()))
			return domain.TierFree, nil
		}
		log.Error("failed to look up subscription tier",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return domain.TierFree, mapError(err)
	}

	resolved := domain.Tier(tier)
	if !resolved.IsValid() {
		log.Warn("unknown tier value in store, defaulting to free",
			slog.String("tier", tier),
			slog.String("user_id", userID.String()))
		return domain.TierFree, nil
	}

	return resolved, nil
}
