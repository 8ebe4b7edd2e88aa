package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

const (
	maxAttempts    = 4 // first try plus three retries
	maxBackoff     = 30 * time.Second
	jitterFraction = 0.25
)

// Variable so tests can shrink the delays.
var initialBackoff = time.Second

// doWithRetry runs fn with exponential backoff and jitter, retrying only
// classified-retryable errors. Rate-limit responses wait twice as long, since
// the provider is explicitly asking us to back off.
func doWithRetry(ctx context.Context, operation string, fn func(ctx context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil || !IsRetryable(err) {
			return "", lastErr
		}
		if attempt >= maxAttempts-1 {
			break
		}

		delay := backoff(attempt)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimit {
			delay *= 2
		}

		zap.L().Warn("llm: retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", lastErr
		case <-timer.C:
		}
	}
	return "", lastErr
}

func backoff(attempt int) time.Duration {
	delay := float64(initialBackoff) * math.Pow(2, float64(attempt))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	jitter := (rand.Float64()*2 - 1) * delay * jitterFraction
	delay += jitter
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
