package session

import "sync"

// Detached delivers change signals to each subscriber on its own goroutine.
// Signals arriving while a subscriber is still running collapse into one
// more run, so the subscriber always ends up seeing the latest state.
type Detached struct {
	changes Subscriber
}

// Detach wraps changes so that the goroutine raising a signal never waits on
// subscriber work such as store reads.
func Detach(changes Subscriber) *Detached {
	return &Detached{changes: changes}
}

// Subscribe registers fn. The returned unsubscribe is idempotent and stops
// fn's goroutine; a run already in progress completes.
func (d *Detached) Subscribe(fn func()) (unsubscribe func()) {
	kick := make(chan struct{}, 1)
	done := make(chan struct{})
	unsub := d.changes.Subscribe(func() {
		select {
		case kick <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-kick:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			unsub()
			close(done)
		})
	}
}
