// Package retry runs an operation again with exponential backoff while its
// failures are classified as retryable.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Policy controls how Do retries an operation
type Policy struct {
	// InitialDelay is the wait before the first retry
	InitialDelay time.Duration
	// Multiplier scales the delay after every retry
	Multiplier float64
	// MaxRetries caps retries; total attempts are MaxRetries+1
	MaxRetries int
	// Retryable decides whether an error is worth another attempt.
	// A nil Retryable never retries.
	Retryable func(error) bool
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *slog.Logger
}

// ExhaustedError is returned when every allowed attempt failed with a
// retryable error. It unwraps to the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	multiplier := p.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}

	delay := p.InitialDelay
	for attempt := 1; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return out, err
		}
		if attempt > p.MaxRetries {
			logger.Error("Retries exhausted", "attempts", attempt, "error", err)
			var zero T
			return zero, &ExhaustedError{Attempts: attempt, Err: err}
		}

		logger.Warn("Transient error, will retry",
			"attempt", attempt,
			"retries_left", p.MaxRetries-attempt+1,
			"backoff", delay.String(),
			"error", err,
		)
		if err := sleep(ctx, delay); err != nil {
			var zero T
			return zero, fmt.Errorf("waiting to retry: %w", err)
		}
		delay = time.Duration(float64(delay) * multiplier)
	}
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
