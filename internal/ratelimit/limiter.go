// Package ratelimit keeps API traffic under the drive backend's request
// quota with a client-side token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// RateLimiter is a token bucket: calls consume one token each, the bucket
// refills continuously at a fixed rate and is capped at a burst size.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	rate       float64 // tokens per second
	lastRefill time.Time
	lastWarn   time.Time
}

// NewRateLimiter creates a limiter that refills at tokensPerSecond and
// holds at most burstSize tokens. The bucket starts full, so a fresh
// limiter lets a burst through before the steady rate applies.
func NewRateLimiter(tokensPerSecond, burstSize float64) *RateLimiter {
	return &RateLimiter{
		tokens:     burstSize,
		burst:      burstSize,
		rate:       tokensPerSecond,
		lastRefill: time.Now(),
	}
}

// NewUserScopeRateLimiter returns the limiter for the drive API user scope,
// which every REST endpoint shares. The backend enforces 36000 requests per
// hour; the client targets 80% of that so listing-heavy sessions and
// concurrent processes do not shave the hard limit. Numbers live in
// constants.go.
func NewUserScopeRateLimiter() *RateLimiter {
	return NewRateLimiter(UserScopeRatePerSec, UserScopeBurstCapacity)
}

// Wait blocks until one token is available or ctx is cancelled.
// Waits longer than a couple of seconds are surfaced as a warning, rate
// limited themselves so a drained bucket does not flood the log.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()

	if rl.tryAcquire() {
		return nil
	}

	if wait := rl.timeUntilNextToken(); wait > 2*time.Second {
		rl.mu.Lock()
		if time.Since(rl.lastWarn) > 10*time.Second {
			zlog.Warn().Msgf("Rate limited: waiting ~%.1fs for API capacity", wait.Seconds())
			rl.lastWarn = time.Now()
		}
		rl.mu.Unlock()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if rl.tryAcquire() {
			if waited := time.Since(start); waited > 5*time.Second {
				zlog.Info().Msgf("Rate limit wait ended after %.1fs", waited.Seconds())
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rl.timeUntilNextToken()):
		}
	}
}

// available returns the current token count after refill.
func (rl *RateLimiter) available() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refillLocked()
	return rl.tokens
}

// tryAcquire consumes one token if the bucket has one. Never blocks.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// refillLocked credits tokens for the time elapsed since the last refill.
// Caller holds mu.
func (rl *RateLimiter) refillLocked() {
	now := time.Now()
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}
	rl.lastRefill = now
}

// timeUntilNextToken reports how long until one full token has accrued.
func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	needed := 1.0 - rl.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / rl.rate * float64(time.Second))
}
