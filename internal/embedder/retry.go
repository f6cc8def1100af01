package embedder

import (
	"context"
	"time"
)

// RetryConfig configures exponential backoff for provider API calls.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the backoff used against remote providers.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	}
}

// retryWithBackoff runs fn until it succeeds, attempts are exhausted, or
// the context is cancelled. Context cancellation is never retried.
func retryWithBackoff[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	backoff := cfg.BaseDelay

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt < cfg.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * cfg.Multiplier)
				if backoff > cfg.MaxDelay {
					backoff = cfg.MaxDelay
				}
			}
		}
	}
	return zero, lastErr
}
