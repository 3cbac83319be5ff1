package domain

import "time"

// Tier represents a user's subscription classification.
type Tier string

// Possible subscription tiers
const (
	TierFree Tier = "FREE"
	TierPaid Tier = "PAID"
)

// Scheduling and admission policy derived from the tier. These are
// business policy values, kept as pure functions so the scheduler and
// rate limiter stay independent of how tiers are priced.
const (
	paidPriorityWeight = 10
	freePriorityWeight = 0

	paidRateLimitPerMinute = 100
	freeRateLimitPerMinute = 20
)

// RateLimitWindow is the trailing interval over which per-user
// submissions are counted.
const RateLimitWindow = time.Minute

// IsValid reports whether the tier is a known subscription tier.
func (t Tier) IsValid() bool {
	return t == TierFree || t == TierPaid
}

// PriorityWeight returns the scheduler priority for the tier.
// Higher values are dequeued first.
func PriorityWeight(tier Tier) int {
	if tier == TierPaid {
		return paidPriorityWeight
	}
	return freePriorityWeight
}

// RateLimitCeiling returns the number of submissions per rate-limit
// window allowed for the tier.
func RateLimitCeiling(tier Tier) int {
	if tier == TierPaid {
		return paidRateLimitPerMinute
	}
	return freeRateLimitPerMinute
}
