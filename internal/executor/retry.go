package executor

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/spachava753/rawfetch/internal/models"
)

// shouldRetry reports whether a failed attempt may be tried again. Client
// errors other than 429 are final; so are local filesystem and size failures.
func shouldRetry(outcome models.FetchOutcome, attempts int, policy models.RetryConfig) bool {
	if outcome.Failure == nil || attempts >= policy.MaxAttempts {
		return false
	}
	switch outcome.Failure.Cause {
	case models.ErrTimeout, models.ErrTransport:
		return true
	case models.ErrHTTPStatus:
		code := outcome.Failure.StatusCode
		return code == http.StatusTooManyRequests || code >= 500
	default:
		return false
	}
}

// backoff returns an exponentially increasing delay with jitter for the given
// attempt (1-based), capped at MaxDelayMs.
func backoff(policy models.RetryConfig, attempt int) time.Duration {
	initial := time.Duration(policy.InitialDelayMs) * time.Millisecond
	maxDelay := time.Duration(policy.MaxDelayMs) * time.Millisecond
	mult := policy.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(initial)
	for i := 1; i < attempt; i++ {
		d *= mult
		if maxDelay > 0 && d > float64(maxDelay) {
			d = float64(maxDelay)
			break
		}
	}

	// Jitter: 0.5 to 1.5 of the delay
	jittered := time.Duration(d * (0.5 + rand.Float64()))
	if maxDelay > 0 && jittered > maxDelay {
		jittered = maxDelay
	}
	return jittered
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
