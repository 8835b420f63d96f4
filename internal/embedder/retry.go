package embedder

import (
	"context"
	"math"
	"time"
)

// Retry defaults shared by the HTTP providers.
const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 100 * time.Millisecond
	defaultRetryCap      = 5 * time.Second
	defaultRetryGrowth   = 2.0
)

// RetryPolicy controls exponential backoff around provider API calls. Each
// provider carries its own policy, so retries can be tuned per endpoint.
type RetryPolicy struct {
	Attempts   int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:   defaultRetryAttempts,
		BaseDelay:  defaultRetryBase,
		MaxDelay:   defaultRetryCap,
		Multiplier: defaultRetryGrowth,
	}
}

// delay returns the backoff before the retry that follows attempt (0-based),
// capped at MaxDelay.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt)))
	if d <= 0 || d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// run invokes call until it succeeds or the attempt budget is spent, sleeping
// between tries. A cancelled context ends the loop immediately and wins over
// the last call error.
func (p RetryPolicy) run(ctx context.Context, call func() (*apiResult, error)) (*apiResult, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, lastErr
}
