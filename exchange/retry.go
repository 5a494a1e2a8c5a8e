package exchange

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// RetryConfig controls the exponential backoff applied to read-only
// exchange calls, grounded on the pack's retry.Client: base 1s, 30s cap,
// 1.5x multiplier with up to backoff/4 jitter. Order submission is never
// wrapped in this retry loop — a duplicate market order is worse than a
// missed cycle.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxAttempts:    5,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
}

// withRetry runs fn, retrying only on KindTransient errors, up to
// cfg.MaxAttempts total attempts.
func withRetry[T any](ctx context.Context, cfg RetryConfig, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		classified := Classify(op, err)
		lastErr = classified
		if classified.Kind != KindTransient || attempt == cfg.MaxAttempts {
			return zero, classified
		}

		select {
		case <-time.After(backoff):
			backoff = nextBackoff(backoff, cfg.MaxBackoff)
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * 1.5)
	if next > max {
		next = max
	}
	maxJitter := int64(next / 4)
	if maxJitter > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
			next += time.Duration(jitter.Int64())
		}
	}
	if next > max {
		next = max
	}
	return next
}
