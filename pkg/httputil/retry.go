package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (connection resets, 5xx responses) with this type
// so that [Retry] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy describes how often and how patiently to retry.
type Policy struct {
	Attempts int           // Total attempts including the first (min 1)
	Delay    time.Duration // Wait before the second attempt
	MaxDelay time.Duration // Upper bound for the doubled delay (0 = none)
}

// DefaultPolicy is used by upstream clients unless configured otherwise:
// 3 attempts, starting at 500ms and doubling up to 4s.
var DefaultPolicy = Policy{Attempts: 3, Delay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}

// NoRetry performs exactly one attempt.
var NoRetry = Policy{Attempts: 1}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. fn receives the zero-based attempt number.
//
// The returned error is the last error from fn with any [RetryableError]
// wrapper removed, or ctx.Err() if the context ends while waiting.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := range attempts {
		err := fn(i)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}
	return unwrapRetryable(lastErr)
}

// Retry executes fn up to attempts times with exponential backoff.
// It only retries errors wrapped with [RetryableError]; other errors are
// returned immediately. The delay doubles after each failed attempt.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return Policy{Attempts: attempts, Delay: delay}.Do(ctx, func(int) error { return fn() })
}

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

func unwrapRetryable(err error) error {
	var re *RetryableError
	if errors.As(err, &re) && re == err {
		return re.Err
	}
	return err
}
