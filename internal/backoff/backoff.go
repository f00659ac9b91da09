// Package backoff retries an operation with exponentially growing waits.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted wraps the last error when the attempts or the time budget
// run out.
var ErrExhausted = errors.New("retries exhausted")

// Policy controls the retry loop. Zero MaxAttempts means no attempt
// limit; zero Timeout means no time limit beyond ctx.
type Policy struct {
	Initial     time.Duration
	Max         time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

// Validate rejects policies that would spin or never wait.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial wait must be > 0, got %v", p.Initial)
	}
	if p.Max <= 0 {
		return fmt.Errorf("max wait must be > 0, got %v", p.Max)
	}
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must be >= 0, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts == 0 && p.Timeout <= 0 {
		return errors.New("either max attempts or timeout must be set")
	}
	return nil
}

// Attempt describes a failed try, passed to the retry hook.
type Attempt struct {
	Number    int
	Err       error
	NextWait  time.Duration
	Remaining time.Duration
}

// Retry calls fn until it succeeds, ctx is done, or the policy is
// exhausted. onRetry, if set, is called after each failed attempt that
// is followed by a wait. It returns the number of attempts made.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error, onRetry func(Attempt)) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	wait := p.Initial
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return attempt, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		}

		if onRetry != nil {
			onRetry(Attempt{Number: attempt, Err: err, NextWait: wait, Remaining: timeLeft(ctx)})
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, err)
		case <-timer.C:
		}
		wait *= 2
		if wait > p.Max {
			wait = p.Max
		}
	}
}

// timeLeft returns the remaining time before the context deadline.
func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
