// Package retry is a composable wrapper for fallible calls whose only
// retryable failure mode is a transient throttling rejection. Backoff is
// linear: baseDelay * attempt, attempt counting from 1.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is returned (wrapping the last transient error) when the
// attempt budget runs out.
var ErrExhausted = errors.New("retry budget exhausted")

const (
	DefaultMaxAttempts = 30
	DefaultBaseDelay   = 2 * time.Second
)

// Policy decides which errors consume attempts and how long to back off.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Transient reports whether err is the throttling signal worth
	// retrying. Any other error is returned immediately without
	// consuming an attempt.
	Transient func(err error) bool

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Policy with defaults filled in for non-positive values.
func New(maxAttempts int, baseDelay time.Duration, transient func(error) bool) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Transient:   transient,
		sleep:       sleepCtx,
	}
}

// Do invokes op up to p.MaxAttempts times. Only errors classified as
// transient by p.Transient are retried; exceeding the budget returns the
// last transient error wrapped in ErrExhausted.
func Do[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if p.Transient == nil || !p.Transient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		sleep := p.sleep
		if sleep == nil {
			sleep = sleepCtx
		}
		if serr := sleep(ctx, p.BaseDelay*time.Duration(attempt)); serr != nil {
			return zero, serr
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
