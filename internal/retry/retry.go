package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Backoff selects how the delay grows between attempts
type Backoff int

const (
	BackoffExponential Backoff = iota
	BackoffLinear
	BackoffFixed
)

// Config holds configuration for retry behavior
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
	Backoff     Backoff
}

// DefaultConfig is used for storage and provider calls unless overridden
var DefaultConfig = Config{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
	Jitter:      true,
	Backoff:     BackoffExponential,
}

// Func is a unit of work that can be attempted more than once.
// attempt starts at 1.
type Func func(attempt int) error

// Error is returned once every attempt failed with a retryable error
type Error struct {
	Err      error
	Attempts int
}

func (e *Error) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable is implemented by errors that know whether repeating the call can help
type Retryable interface {
	Retryable() bool
}

// IsRetryable reports whether any error in the chain declares itself retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}

// Do executes fn until it succeeds, returns a non-retryable error,
// the attempts run out or ctx is done.
func Do(ctx context.Context, cfg Config, fn Func) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt >= cfg.MaxAttempts {
			break
		}

		delay := cfg.delay(attempt)
		if cfg.Jitter {
			delay = jitter(delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return &Error{
		Err:      lastErr,
		Attempts: cfg.MaxAttempts,
	}
}

func (cfg Config) delay(attempt int) time.Duration {
	var d time.Duration
	switch cfg.Backoff {
	case BackoffExponential:
		d = cfg.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	case BackoffLinear:
		d = cfg.BaseDelay * time.Duration(attempt)
	default:
		d = cfg.BaseDelay
	}
	if cfg.MaxDelay > 0 && d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}

// jitter spreads the delay by ±25%
func jitter(d time.Duration) time.Duration {
	j := (rand.Float64() - 0.5) * 0.5
	return time.Duration(float64(d) * (1 + j))
}
