// Package retry runs an operation a bounded number of times with a fixed pause.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultAttempts is how often Do tries before giving up.
	DefaultAttempts = 20
	// DefaultInterval is the pause between attempts.
	DefaultInterval = 200 * time.Millisecond
)

// ErrExhausted wraps the last error once every attempt failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy bounds a retry loop. Zero values use the defaults.
type Policy struct {
	Attempts int
	Interval time.Duration
}

func (p Policy) normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	return p
}

// Do calls fn until it returns nil, the attempts run out, or ctx is done.
// A ctx error is returned as is; exhaustion wraps both ErrExhausted and fn's last error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	p = p.normalize()
	var last error
	for i := 0; i < p.Attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if last = fn(ctx); last == nil {
			return nil
		}
		if i == p.Attempts-1 {
			break
		}
		t := time.NewTimer(p.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return fmt.Errorf("%w after %d tries: %w", ErrExhausted, p.Attempts, last)
}
