package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/domain"
)

// SubscriptionStore resolves a user's subscription tier. The tier in
// turn yields the priority weight and rate-limit ceiling through the
// pure functions in the domain package.
type SubscriptionStore interface {
	// GetTier returns the user's subscription tier.
	// Users without a subscription record are on the free tier;
	// implementations return domain.TierFree rather than an error
	// for unknown users.
	GetTier(ctx context.Context, userID uuid.UUID) (domain.Tier, error)
}
