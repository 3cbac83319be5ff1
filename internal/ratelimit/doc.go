// Package ratelimit enforces per-user, tier-dependent submission
// ceilings over a sliding window. Throttled requests are denied without
// consuming allowance.
package ratelimit
