package engine

import (
	"errors"
	"time"
)

// RetryPolicy configures how the engine retries a failed step attempt.
// It is a value object attached per step dispatch and never mutated.
type RetryPolicy struct {
	// MaxAttempts is the total number of times the executor is invoked
	// before the failure becomes terminal. Defaults to 5.
	MaxAttempts int

	// InitialInterval is the wait before the second attempt. Defaults to 1s.
	InitialInterval time.Duration

	// BackoffCoefficient multiplies the interval after each failed attempt.
	// 2.0 gives delays of 1, 2, 4, 8 units before the fifth attempt.
	// Defaults to 2.0.
	BackoffCoefficient float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = time.Second
	}
	if p.BackoffCoefficient <= 0 {
		p.BackoffCoefficient = 2.0
	}
	return p
}

// Sentinel errors. Match with errors.Is.
var (
	// ErrDuplicateOrder is returned by StartOrder when the order identifier
	// collides with a known instance, live or terminal.
	ErrDuplicateOrder = errors.New("engine: duplicate order id")

	// ErrStepFailed wraps the executor error once retries are exhausted or a
	// non-retryable failure is hit. The workflow converts it into a FAILED
	// terminal result; it never faults the instance.
	ErrStepFailed = errors.New("engine: step failed")
)

// nonRetryableError marks an executor error that must not be retried.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable wraps err so that dispatch aborts the retry loop immediately.
// Executors use it for failures where repeating the call cannot help, such
// as an invalid payload. The failure still surfaces to the workflow as a
// plain terminal step failure.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err carries the NonRetryable marker.
func IsNonRetryable(err error) bool {
	var nr *nonRetryableError
	return errors.As(err, &nr)
}
