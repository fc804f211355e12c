package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsImmediately(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), defaultRetryConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	cfg := retryConfig{maxAttempts: 3, baseDelay: time.Millisecond, maxDelay: 5 * time.Millisecond}
	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ExhaustsBudget(t *testing.T) {
	cfg := retryConfig{maxAttempts: 2, baseDelay: time.Millisecond, maxDelay: 2 * time.Millisecond}
	calls := 0
	err := withRetry(context.Background(), cfg, func() error {
		calls++
		return errors.New("permanent")
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := retryConfig{maxAttempts: 5, baseDelay: 10 * time.Millisecond, maxDelay: 50 * time.Millisecond}
	err := withRetry(ctx, cfg, func() error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
