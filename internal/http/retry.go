package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/driveman/driveman/internal/constants"
)

// FailureClass sorts transfer errors into buckets that decide whether
// retrying can help.
type FailureClass int

const (
	// ClassNone means no error.
	ClassNone FailureClass = iota
	// ClassCredential covers rejected tokens (401, 403). The token is static
	// configuration, so retrying cannot produce a different answer.
	ClassCredential
	// ClassNetwork covers connection-level failures: resets, refused
	// connections, timeouts, truncated reads.
	ClassNetwork
	// ClassServer covers transient server trouble: 429, 5xx, throttling.
	ClassServer
	// ClassFatal covers client mistakes (400, 404, 409) and anything
	// unrecognized.
	ClassFatal
)

func (c FailureClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassCredential:
		return "credential"
	case ClassNetwork:
		return "network"
	case ClassServer:
		return "server"
	case ClassFatal:
		return "fatal"
	}
	return "unknown"
}

// RetryPolicy controls Retry. The zero value makes a single attempt with no
// backoff; DefaultRetryPolicy carries the tuning used for transfers.
type RetryPolicy struct {
	MaxAttempts  int           // total attempts, including the first
	InitialDelay time.Duration // backoff ceiling for the first retry, doubles per retry
	MaxDelay     time.Duration // the ceiling stops growing here

	// OnRetry, when set, fires after each failed attempt that will be
	// retried, before the backoff sleep. attempt is 1-based.
	OnRetry func(attempt int, err error, class FailureClass)
}

// DefaultRetryPolicy returns the standard transfer retry tuning.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  constants.MaxRetries,
		InitialDelay: constants.RetryInitialDelay,
		MaxDelay:     constants.RetryMaxDelay,
	}
}

// Classify sorts an error into a FailureClass.
//
// Matching works on error text because failures surface from several layers
// (net, tls, the drive API) without shared sentinel types, and the api
// package cannot be imported from here without a cycle. API errors embed
// "status NNN" in their messages, which is what the numeric checks key on.
// Unrecognized errors classify as fatal so a misjudged failure cannot burn
// the whole attempt budget.
func Classify(err error) FailureClass {
	if err == nil {
		return ClassNone
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "401", "403", "unauthorized", "forbidden", "invalid token", "expired"):
		return ClassCredential
	case containsAny(msg, "connection reset", "connection refused", "broken pipe",
		"tls handshake timeout", "i/o timeout", "timeout", "eof"):
		return ClassNetwork
	case containsAny(msg, "429", "500", "502", "503", "504",
		"throttl", "server busy", "service unavailable"):
		return ClassServer
	}

	return ClassFatal
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// backoffDelay returns a random delay in [0, ceiling], where the ceiling
// starts at InitialDelay and doubles with each retry until MaxDelay. Full
// jitter keeps a batch of clients from retrying in lockstep.
func backoffDelay(retry int, policy RetryPolicy) time.Duration {
	if retry < 1 || policy.InitialDelay <= 0 {
		return 0
	}

	ceiling := policy.InitialDelay << uint(retry-1)
	if ceiling <= 0 || ceiling > policy.MaxDelay {
		// Either past MaxDelay or the shift overflowed.
		ceiling = policy.MaxDelay
	}
	if ceiling <= 0 {
		return 0
	}

	return time.Duration(rand.Int63n(int64(ceiling) + 1))
}

// Retry runs op until it succeeds, fails unrecoverably, or the attempt
// budget runs out. Network and server failures back off with jitter and try
// again; credential and fatal failures return immediately. Context
// cancellation wins over everything, including mid-backoff.
//
// op must be safe to re-run after a failure. Download acquisition qualifies
// because the GET is rebuilt per attempt; upload streams do not, since a
// half-sent body cannot be replayed.
func Retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}

		// A cancelled op is a cancelled Retry, whatever the error text says.
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		class := Classify(lastErr)
		if class == ClassFatal {
			return lastErr
		}
		if class == ClassCredential {
			return fmt.Errorf("credential rejected: %w", lastErr)
		}
		if attempt == policy.MaxAttempts {
			break
		}

		if policy.OnRetry != nil {
			policy.OnRetry(attempt, lastErr, class)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(attempt, policy)):
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", policy.MaxAttempts, lastErr)
}
