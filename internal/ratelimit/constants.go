// Package ratelimit provides rate limiting constants for drive API throttle scopes.
package ratelimit

// Drive API Throttle Limits
//
// The drive API throttles per token: every REST endpoint (listing, metadata,
// upload registration, delete) counts against one shared "user" budget, and
// raw content transfer bytes are not throttled per request. Exceeding the
// budget returns 429 with a Retry-After header and, repeated, a temporary
// token lockout.

// Base rate limits
const (
	// UserScopeLimitPerHour is the per-token request budget.
	// All /api/v2/* endpoints share this scope.
	UserScopeLimitPerHour = 36000 // 10 requests per second
)

// Target percentages
//
// We target 80% of the hard limit: the 20% margin absorbs bursts from
// concurrent operations (the client never serializes separate batches) and
// keeps a lockout from ever being reachable through normal use.
const (
	// UserScopeTargetPercent: use 80% of the user scope limit
	UserScopeTargetPercent = 80
)

// Calculated target rates (requests per second)
const (
	// UserScopeRatePerSec is 80% of 10 req/sec = 8 req/sec
	UserScopeRatePerSec = 8.0
)

// Burst capacities (tokens)
//
// Burst capacity allows rapid initial operations before settling into the
// sustained rate. Calculated as: tokens = duration_in_seconds * rate_per_second
const (
	// UserScopeBurstCapacity allows ~6 seconds of burst operations
	// Calculation: 50 tokens / 8 req/sec = 6.25 seconds
	// Enough for a large folder listing plus a batch of metadata lookups
	UserScopeBurstCapacity = 50
)
