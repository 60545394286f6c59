package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError wraps an error to indicate the fetch that produced it may
// succeed on another attempt. The page client wraps transport failures and
// 5xx statuses with it; sentinel outcomes (not found, client errors) are
// returned bare and never retried.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Policy bounds the retry loop for one page fetch: how many attempts are
// made and how long the first backoff pause is. The pause doubles after
// each failed attempt.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultPolicy is paced for the scraped hosts: pages are small and the
// hosts recover quickly, so three attempts starting at one second covers
// transient hiccups without stalling a command for long.
var DefaultPolicy = Policy{Attempts: 3, Delay: time.Second}

// Do executes fn under the policy. Only errors wrapped in [RetryableError]
// trigger another attempt; anything else is returned immediately. Returns
// the last error when every attempt fails, or ctx.Err() when the context is
// cancelled during a backoff pause.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !errors.As(err, new(*RetryableError)) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return lastErr
}
