package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear waits attempt × base between attempts.
func Linear(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Exponential waits initial × multiplier^(attempt-1), capped at maxDelay.
func Exponential(initial, maxDelay time.Duration, multiplier float64) Backoff {
	return func(attempt int) time.Duration {
		d := float64(initial)
		for i := 1; i < attempt; i++ {
			d *= multiplier
			if time.Duration(d) >= maxDelay {
				return maxDelay
			}
		}
		return time.Duration(d)
	}
}

// Config holds retry configuration.
type Config struct {
	MaxAttempts int
	Backoff     Backoff
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt, maxAttempts int, err error, wait time.Duration)
}

// Option is a functional option for retry configuration.
type Option func(*Config)

// WithMaxAttempts sets the total number of attempts, including the first.
// Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithBackoff sets the delay strategy.
func WithBackoff(b Backoff) Option {
	return func(c *Config) {
		c.Backoff = b
	}
}

// WithOnRetry registers a hook invoked before each wait.
func WithOnRetry(fn func(attempt, maxAttempts int, err error, wait time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// Do executes operation until it succeeds, returns a Fatal error, the
// attempt budget runs out, or ctx is done. The operation receives the
// 1-based attempt number.
func Do(ctx context.Context, operation func(attempt int) error, opts ...Option) error {
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     Linear(time.Second),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}

		if attempt < cfg.MaxAttempts {
			wait := cfg.Backoff(attempt)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, cfg.MaxAttempts, err, wait)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}

// FatalError wraps an error to mark it as fatal (non-retryable).
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal marks an error as fatal (non-retryable).
// Operations that encounter fatal errors will not be retried.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal checks if an error is fatal (non-retryable).
func IsFatal(err error) bool {
	var fatalErr *FatalError
	return errors.As(err, &fatalErr)
}
