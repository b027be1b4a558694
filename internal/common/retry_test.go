package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("database is locked")

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errTransient, Retryable: true}
		}
		return nil
	}, fastRetry(5))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("constraint failed")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: permanent, Retryable: false}
	}, fastRetry(5))

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, permanent)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return errTransient
	}, fastRetry(3))

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.ErrorIs(t, err, errTransient)
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := WithRetry(ctx, func() error {
		cancel()
		return errTransient
	}, RetryOptions{MaxAttempts: 3, InitialDelay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
}
