package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/melodia/melodia-api/internal/store"
)

// MemoryStore is an in-process store.RateLimitStore for single-instance
// deployments and tests. Each key holds the timestamps of admitted
// events inside the current window; expired entries are pruned on every
// admission check.
type MemoryStore struct {
	mu     sync.Mutex
	events map[string][]time.Time

	// now is swappable in tests
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory admission store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Ensure MemoryStore implements store.RateLimitStore interface
var _ store.RateLimitStore = (*MemoryStore)(nil)

// Admit implements store.RateLimitStore.Admit.
func (s *MemoryStore) Admit(_ context.Context, key string, ceiling int, window time.Duration) (bool, error) {
	if ceiling <= 0 {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.events[key][:0]
	for _, at := range s.events[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= ceiling {
		s.events[key] = kept
		return false, nil
	}

	s.events[key] = append(kept, now)
	return true, nil
}
