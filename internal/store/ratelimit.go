package store

import (
	"context"
	"time"
)

// RateLimitStore is the atomic sliding-window admission primitive.
// An implementation must perform the prune-count-record sequence as a
// single atomic unit per key so concurrent requests from the same user
// cannot slip past the ceiling. Denial records nothing.
type RateLimitStore interface {
	// Admit reports whether one more event is allowed for the key within
	// the trailing window. When allowed, the event is recorded; when
	// denied, the window is left untouched.
	Admit(ctx context.Context, key string, ceiling int, window time.Duration) (bool, error)
}
