package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	called := 0
	result, err := Retry(context.Background(), testConfig(), func() (string, error) {
		called++
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 1, called)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	called := 0
	result, err := Retry(context.Background(), testConfig(), func() (string, error) {
		called++
		if called < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, called)
}

func TestRetry_MaxAttemptsReached(t *testing.T) {
	expectedErr := errors.New("operation failed")
	called := 0
	_, err := Retry(context.Background(), testConfig(), func() (string, error) {
		called++
		return "", expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, 3, called)
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	called := 0
	_, err := Retry(context.Background(), Config{}, func() (int, error) {
		called++
		return 0, errors.New("boom")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, called)
}

func TestRetry_RetryIf(t *testing.T) {
	config := testConfig()
	config.RetryIf = platformerrors.IsRetryable

	t.Run("permanent error stops immediately", func(t *testing.T) {
		called := 0
		_, err := Retry(context.Background(), config, func() (int, error) {
			called++
			return 0, platformerrors.New(platformerrors.CodeNotFound, "missing")
		})

		assert.Equal(t, platformerrors.CodeNotFound, platformerrors.GetCode(err))
		assert.Equal(t, 1, called)
	})

	t.Run("retryable error is retried", func(t *testing.T) {
		called := 0
		result, err := Retry(context.Background(), config, func() (int, error) {
			called++
			if called < 3 {
				return 0, platformerrors.New(platformerrors.CodeTimeout, "slow backend")
			}
			return 7, nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 7, result)
		assert.Equal(t, 3, called)
	})
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
	}

	called := 0
	start := time.Now()
	_, err := Retry(ctx, config, func() (string, error) {
		called++
		if called == 2 {
			cancel()
		}
		return "", errors.New("operation failed")
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, called)
	assert.Less(t, elapsed, 500*time.Millisecond, "cancellation took too long")
}

func TestRetry_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := 0
	_, err := Retry(ctx, testConfig(), func() (int, error) {
		called++
		return 1, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, called)
}

func TestConfig_NextDelay(t *testing.T) {
	config := Config{MaxDelay: 150 * time.Millisecond}

	for i := 0; i < 100; i++ {
		d := config.nextDelay(100 * time.Millisecond)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}

	assert.Zero(t, config.nextDelay(0))

	// Без MaxDelay задержка ограничена только джиттером
	d := Config{}.nextDelay(time.Second)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, 2*time.Second)
}
