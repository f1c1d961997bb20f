package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// retryConfig configures exponential backoff with jitter for transient model
// API errors.
type retryConfig struct {
	maxRetries     int
	initialDelay   time.Duration
	maxDelay       time.Duration
	backoffFactor  float64
	jitterFraction float64
}

var defaultRetryConfig = retryConfig{
	maxRetries:     2,
	initialDelay:   1 * time.Second,
	maxDelay:       10 * time.Second,
	backoffFactor:  2.0,
	jitterFraction: 0.2,
}

// withRetry executes fn until it succeeds, the context is cancelled, or
// retries are exhausted.
func withRetry[T any](ctx context.Context, cfg retryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	var lastErr error
	var zero T

	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= cfg.maxRetries {
			break
		}

		delay := float64(cfg.initialDelay) * math.Pow(cfg.backoffFactor, float64(attempt))
		if delay > float64(cfg.maxDelay) {
			delay = float64(cfg.maxDelay)
		}
		if cfg.jitterFraction > 0 {
			delay += delay * cfg.jitterFraction * (rand.Float64()*2 - 1)
			if delay < 0 {
				delay = float64(cfg.initialDelay)
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(delay)):
		}
	}

	return zero, lastErr
}
