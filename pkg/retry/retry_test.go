package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 5, Interval: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausted(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 4, Interval: time.Millisecond}, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{Attempts: 100, Interval: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicy_Defaults(t *testing.T) {
	p := Policy{}.normalize()
	assert.Equal(t, DefaultAttempts, p.Attempts)
	assert.Equal(t, DefaultInterval, p.Interval)
}
