package llm

import (
	"context"
	"time"
)

// retryConfig bounds the adapter's retry loop: up to 3 attempts, on either a
// transient call failure or a schema-validation failure, with the adapter
// re-prompting with a corrective instruction on the latter (spec.md §4.7).
type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func defaultRetryConfig() retryConfig {
	return retryConfig{maxAttempts: 3, baseDelay: 200 * time.Millisecond, maxDelay: 2 * time.Second}
}

// attempt runs fn up to cfg.maxAttempts times. fn receives the zero-based
// attempt index so it can append a corrective instruction to the prompt on
// retries after a schema-validation failure. A nil error stops the loop
// immediately; any other error is retried with exponential backoff until
// attempts are exhausted, at which point the last error is returned.
func withAdapterRetry(ctx context.Context, cfg retryConfig, fn func(attempt int) error) error {
	var err error
	delay := cfg.baseDelay

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if err = fn(attempt); err == nil {
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
