package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyError struct {
	retry bool
}

func (e *flakyError) Error() string   { return "flaky" }
func (e *flakyError) Retryable() bool { return e.retry }

var fastConfig = Config{
	MaxAttempts: 3,
	BaseDelay:   time.Millisecond,
	MaxDelay:    5 * time.Millisecond,
	Backoff:     BackoffExponential,
}

func TestDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), fastConfig, func(attempt int) error {
			calls++
			if attempt < 3 {
				return &flakyError{retry: true}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad input")
		err := Do(context.Background(), fastConfig, func(int) error {
			calls++
			return permanent
		})
		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("wraps last error when attempts run out", func(t *testing.T) {
		err := Do(context.Background(), fastConfig, func(int) error {
			return &flakyError{retry: true}
		})
		var rerr *Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, 3, rerr.Attempts)
		var flaky *flakyError
		assert.ErrorAs(t, err, &flaky)
	})

	t.Run("honours context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := fastConfig
		cfg.BaseDelay = time.Hour
		cfg.MaxDelay = time.Hour
		err := Do(ctx, cfg, func(int) error {
			cancel()
			return &flakyError{retry: true}
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDelay(t *testing.T) {
	tests := []struct {
		name    string
		backoff Backoff
		attempt int
		want    time.Duration
	}{
		{"exponential first", BackoffExponential, 1, 100 * time.Millisecond},
		{"exponential third", BackoffExponential, 3, 400 * time.Millisecond},
		{"exponential capped", BackoffExponential, 10, time.Second},
		{"linear", BackoffLinear, 3, 300 * time.Millisecond},
		{"fixed", BackoffFixed, 5, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Backoff: tt.backoff}
			assert.Equal(t, tt.want, cfg.delay(tt.attempt))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsRetryable(&flakyError{retry: true}))
	assert.False(t, IsRetryable(&flakyError{retry: false}))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
}
