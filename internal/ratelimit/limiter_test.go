package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melodia/melodia-api/internal/domain"
)

func TestLimiterAdmitsUpToCeiling(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), time.Minute, nil)
	userID := uuid.New()
	ctx := context.Background()

	ceiling := domain.RateLimitCeiling(domain.TierFree)
	for i := 0; i < ceiling; i++ {
		require.NoError(t, limiter.Allow(ctx, userID, domain.TierFree), "request %d", i)
	}

	err := limiter.Allow(ctx, userID, domain.TierFree)
	require.Error(t, err)

	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, ceiling, limitErr.Ceiling)
	assert.Equal(t, time.Minute, limitErr.Window)
}

func TestLimiterPaidTierHasHigherCeiling(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), time.Minute, nil)
	userID := uuid.New()
	ctx := context.Background()

	freeCeiling := domain.RateLimitCeiling(domain.TierFree)
	paidCeiling := domain.RateLimitCeiling(domain.TierPaid)
	require.Greater(t, paidCeiling, freeCeiling)

	for i := 0; i < paidCeiling; i++ {
		require.NoError(t, limiter.Allow(ctx, userID, domain.TierPaid), "request %d", i)
	}
	assert.Error(t, limiter.Allow(ctx, userID, domain.TierPaid))
}

func TestLimiterIsolatesUsers(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(NewMemoryStore(), time.Minute, nil)
	ctx := context.Background()

	throttled := uuid.New()
	for i := 0; i < domain.RateLimitCeiling(domain.TierFree); i++ {
		require.NoError(t, limiter.Allow(ctx, throttled, domain.TierFree))
	}
	require.Error(t, limiter.Allow(ctx, throttled, domain.TierFree))

	// A different user is unaffected.
	assert.NoError(t, limiter.Allow(ctx, uuid.New(), domain.TierFree))
}

func TestMemoryStoreWindowExpiry(t *testing.T) {
	t.Parallel()

	memStore := NewMemoryStore()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	memStore.now = func() time.Time { return current }

	ctx := context.Background()
	const ceiling = 3

	for i := 0; i < ceiling; i++ {
		admitted, err := memStore.Admit(ctx, "user-1", ceiling, time.Minute)
		require.NoError(t, err)
		require.True(t, admitted)
	}

	admitted, err := memStore.Admit(ctx, "user-1", ceiling, time.Minute)
	require.NoError(t, err)
	assert.False(t, admitted)

	// Once the window slides past the original events, allowance returns.
	current = current.Add(61 * time.Second)
	admitted, err = memStore.Admit(ctx, "user-1", ceiling, time.Minute)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestMemoryStoreDenialHasNoSideEffect(t *testing.T) {
	t.Parallel()

	memStore := NewMemoryStore()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	memStore.now = func() time.Time { return current }

	ctx := context.Background()
	const ceiling = 2

	for i := 0; i < ceiling; i++ {
		admitted, err := memStore.Admit(ctx, "user-1", ceiling, time.Minute)
		require.NoError(t, err)
		require.True(t, admitted)
	}

	// Hammering a throttled key must not extend the throttle.
	for i := 0; i < 10; i++ {
		current = current.Add(time.Second)
		admitted, err := memStore.Admit(ctx, "user-1", ceiling, time.Minute)
		require.NoError(t, err)
		require.False(t, admitted)
	}

	// 61s after the second admitted event the window is clear again.
	current = current.Add(51 * time.Second)
	admitted, err := memStore.Admit(ctx, "user-1", ceiling, time.Minute)
	require.NoError(t, err)
	assert.True(t, admitted)
}

func TestMemoryStoreZeroCeiling(t *testing.T) {
	t.Parallel()

	admitted, err := NewMemoryStore().Admit(context.Background(), "user-1", 0, time.Minute)
	require.NoError(t, err)
	assert.False(t, admitted)
}

type failingStore struct{}

func (failingStore) Admit(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("backend down")
}

func TestLimiterPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	limiter := NewLimiter(failingStore{}, time.Minute, nil)
	err := limiter.Allow(context.Background(), uuid.New(), domain.TierFree)
	require.Error(t, err)

	var limitErr *LimitExceededError
	assert.False(t, errors.As(err, &limitErr), "store failure is not a throttle")
}
