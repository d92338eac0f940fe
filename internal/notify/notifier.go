package notify

import (
	"sync"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/metrics"
)

// Publisher forwards a local change to sibling instances sharing the substrate.
type Publisher interface {
	PublishChange() error
}

// Notifier is the process-wide change signal for the event collection.
// Callbacks carry no payload: subscribers re-read the store on every signal.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]func()
	nextID uint64
	pub    Publisher
	logger *zap.Logger
}

// New creates a notifier. pub may be nil for a single-instance deployment.
func New(pub Publisher, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		subs:   make(map[uint64]func()),
		pub:    pub,
		logger: logger,
	}
}

// SetPublisher attaches the cross-instance publisher after construction.
func (n *Notifier) SetPublisher(pub Publisher) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pub = pub
}

// Subscribe registers fn and returns its unsubscribe handle. The handle is
// idempotent and may be called from inside fn.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Notify signals a change made by this instance: local subscribers first, then siblings.
func (n *Notifier) Notify() {
	n.dispatch("local")
	n.mu.RLock()
	pub := n.pub
	n.mu.RUnlock()
	if pub == nil {
		return
	}
	if err := pub.PublishChange(); err != nil {
		n.logger.Warn("publish change signal failed", zap.Error(err))
	}
}

// Remote signals a change observed from a sibling instance.
func (n *Notifier) Remote() {
	n.dispatch("remote")
}

// dispatch calls every subscriber registered at signal time exactly once.
func (n *Notifier) dispatch(source string) {
	n.mu.RLock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	metrics.ChangeSignals.WithLabelValues(source).Inc()
	for _, fn := range fns {
		fn()
	}
}
