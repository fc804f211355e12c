package embedding

import (
	"context"
	"time"
)

// retryConfig bounds the exponential backoff applied to transient provider
// failures (spec.md §4.1: "transient (retry with exponential backoff, up to
// a configured cap)"). No example repo ships a generic backoff helper, so
// this is a small stdlib implementation rather than a pulled-in dependency
// — see DESIGN.md.
type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxAttempts: 4, baseDelay: 200 * time.Millisecond, maxDelay: 5 * time.Second}
}

// withRetry calls fn up to cfg.maxAttempts times, doubling the delay between
// attempts up to cfg.maxDelay, and returns the last error once attempts run
// out. Every non-nil error from fn is retried: permanent errors (auth
// failures, malformed requests) are not told apart from transient ones and
// reach the caller only after the last attempt.
func withRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	var err error
	delay := cfg.baseDelay

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == cfg.maxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}

	return err
}
