package gateway

import (
	"context"
	"time"
)

// RetryPolicy configures the one-shot retry applied to idempotent reads.
// The policy is a plain value so it can be unit-tested independent of the
// transport.
type RetryPolicy struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 2 (one retry)
	MaxAttempts int

	// Backoff is the fixed delay before each retry.
	// Default: 500ms
	Backoff time.Duration

	// RetryIf determines if an error should trigger a retry.
	// Default: IsNetworkError
	RetryIf func(err error) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy returns the gateway's default retry policy: one retry
// after 500ms, for pure network failures only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 2,
		Backoff:     500 * time.Millisecond,
		RetryIf:     IsNetworkError,
	}
}

// withDefaults fills in zero values.
func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 2
	}
	if p.Backoff <= 0 {
		p.Backoff = 500 * time.Millisecond
	}
	if p.RetryIf == nil {
		p.RetryIf = IsNetworkError
	}
	return p
}

// Do runs the operation under the policy.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		lastErr = err

		if !p.RetryIf(err) {
			return nil, err
		}
		if attempt >= p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, p.Backoff)
		}

		// Wait for the backoff or context cancellation
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.Backoff):
		}
	}

	return nil, lastErr
}
