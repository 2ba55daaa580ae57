package reliability

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errConflict = errors.New("listener already registered")

func TestExponentialBackoff(t *testing.T) {
	t.Run("creates with correct defaults", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 5*time.Second, 2.0, 3)

		assert.Equal(t, 100*time.Millisecond, eb.InitialInterval)
		assert.Equal(t, 5*time.Second, eb.MaxInterval)
		assert.Equal(t, 2.0, eb.Multiplier)
		assert.Equal(t, 3, eb.MaxRetries())
		assert.True(t, eb.Jitter)
	})

	t.Run("ShouldRetry respects max retries", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, time.Second, 2.0, 3)

		for i := 0; i < 3; i++ {
			shouldRetry, delay := eb.ShouldRetry(i, errors.New("test"))
			assert.True(t, shouldRetry)
			assert.Greater(t, delay, time.Duration(0))
		}

		shouldRetry, delay := eb.ShouldRetry(3, errors.New("test"))
		assert.False(t, shouldRetry)
		assert.Zero(t, delay)
	})

	t.Run("NextDelay grows and caps", func(t *testing.T) {
		eb := NewExponentialBackoff(100*time.Millisecond, 10*time.Second, 2.0, 5)
		eb.Jitter = false

		tests := []struct {
			attempt  int
			expected time.Duration
		}{
			{0, 100 * time.Millisecond},
			{1, 200 * time.Millisecond},
			{2, 400 * time.Millisecond},
			{10, 10 * time.Second},
		}

		for _, tt := range tests {
			t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
				assert.Equal(t, tt.expected, eb.NextDelay(tt.attempt))
			})
		}
	})

	t.Run("jitter stays within 15 percent", func(t *testing.T) {
		eb := NewExponentialBackoff(time.Second, 10*time.Second, 2.0, 5)

		for i := 0; i < 20; i++ {
			delay := eb.NextDelay(0)
			assert.GreaterOrEqual(t, delay, 850*time.Millisecond)
			assert.LessOrEqual(t, delay, 1150*time.Millisecond)
		}
	})
}

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(50*time.Millisecond, 2)

	shouldRetry, delay := fd.ShouldRetry(0, errors.New("test"))
	assert.True(t, shouldRetry)
	assert.Equal(t, 50*time.Millisecond, delay)
	assert.Equal(t, 50*time.Millisecond, fd.NextDelay(7))

	shouldRetry, _ = fd.ShouldRetry(2, errors.New("test"))
	assert.False(t, shouldRetry)
}

func TestRetryOn(t *testing.T) {
	policy := RetryOn(NewFixedDelay(time.Millisecond, 3), errConflict)

	t.Run("retries matching errors", func(t *testing.T) {
		shouldRetry, _ := policy.ShouldRetry(0, fmt.Errorf("listen Report: %w", errConflict))
		assert.True(t, shouldRetry)
	})

	t.Run("ignores other errors", func(t *testing.T) {
		shouldRetry, _ := policy.ShouldRetry(0, errors.New("unknown message type"))
		assert.False(t, shouldRetry)
	})

	t.Run("keeps underlying limits", func(t *testing.T) {
		shouldRetry, _ := policy.ShouldRetry(3, errConflict)
		assert.False(t, shouldRetry)
		assert.Equal(t, 3, policy.MaxRetries())
	})
}

func TestRetry(t *testing.T) {
	t.Run("succeeds on first attempt", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), NewFixedDelay(100*time.Millisecond, 3), "op", func() error {
			attempts++
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retries on failure", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 3), "op", func() error {
			attempts++
			if attempts < 3 {
				return errConflict
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("wraps last error after max retries", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 2), "receive Report", func() error {
			attempts++
			return errConflict
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, errConflict)
		assert.Equal(t, 3, attempts)

		var retryErr *RetryError
		require.True(t, errors.As(err, &retryErr))
		assert.Equal(t, "receive Report", retryErr.Op)
		assert.Equal(t, 3, retryErr.Attempts)
		assert.Equal(t, 3, retryErr.MaxAttempts)
		assert.Contains(t, err.Error(), "retry failed: receive Report after 3/3 attempts")
	})

	t.Run("returns non-retryable error unwrapped", func(t *testing.T) {
		unknown := errors.New("unknown message type")
		attempts := 0
		err := Retry(context.Background(), RetryOn(NewFixedDelay(time.Millisecond, 5), errConflict), "op", func() error {
			attempts++
			return unknown
		})

		assert.Same(t, unknown, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var attempts atomic.Int32

		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		err := Retry(ctx, NewFixedDelay(time.Second, 5), "op", func() error {
			attempts.Add(1)
			return errConflict
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("stops on RetryableError false", func(t *testing.T) {
		attempts := 0
		err := Retry(context.Background(), NewFixedDelay(time.Millisecond, 5), "op", func() error {
			attempts++
			if attempts == 2 {
				return RetryableError{Err: errors.New("fatal error"), Retryable: false}
			}
			return errConflict
		})

		assert.ErrorContains(t, err, "fatal error")
		assert.Equal(t, 2, attempts)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.True(t, isRetryableError(errors.New("unknown")))
	assert.False(t, isRetryableError(fmt.Errorf("wrapped: %w", ErrNonRetryable)))
	assert.True(t, isRetryableError(RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, isRetryableError(fmt.Errorf("wrapped: %w", RetryableError{Err: errors.New("x")})))

	base := errors.New("base")
	assert.Same(t, base, RetryableError{Err: base}.Unwrap())
}
