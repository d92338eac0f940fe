package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/models"
)

// View is the screen an attendee session is showing.
type View string

const (
	ViewDiscovery   View = "discovery"
	ViewLightScreen View = "light_screen"
)

// NoticeEventEnded is surfaced when the viewed event disappears.
const NoticeEventEnded = "this event has ended"

const refreshTimeout = 5 * time.Second

var (
	// ErrEventNotFound is returned when selecting an id that is not stored.
	ErrEventNotFound = errors.New("event not found")
)

// Finder resolves an event by id; nil means absent.
type Finder interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

// Subscriber is the change signal a session listens to.
type Subscriber interface {
	Subscribe(fn func()) (unsubscribe func())
}

// Snapshot is the read-only mirrored view state of an attendee session.
type Snapshot struct {
	View      View   `json:"view"`
	EventID   string `json:"event_id,omitempty"`
	EventName string `json:"event_name,omitempty"`
	Color     string `json:"color,omitempty"`
	IsRandom  bool   `json:"is_random"`
	Notice    string `json:"notice,omitempty"`
}

// Viewer mirrors one event's live fields for one open screen.
// It never mutates the store.
type Viewer struct {
	mu       sync.Mutex
	store    Finder
	unsub    func()
	snap     Snapshot
	onChange func(Snapshot)
	logger   *zap.Logger
}

// NewViewer creates an attendee session in the discovery view, subscribed to changes.
// onChange, if set, receives every new snapshot.
func NewViewer(store Finder, changes Subscriber, onChange func(Snapshot), logger *zap.Logger) *Viewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &Viewer{
		store:    store,
		snap:     Snapshot{View: ViewDiscovery},
		onChange: onChange,
		logger:   logger,
	}
	v.unsub = changes.Subscribe(v.refresh)
	return v
}

// Select starts mirroring the event with id and switches to the light screen.
func (v *Viewer) Select(ctx context.Context, id string) (Snapshot, error) {
	e, err := v.store.FindByID(ctx, id)
	if err != nil {
		return v.Snapshot(), err
	}
	if e == nil {
		return v.Snapshot(), ErrEventNotFound
	}
	v.mu.Lock()
	v.snap = Snapshot{
		View:      ViewLightScreen,
		EventID:   e.ID,
		EventName: e.Name,
		Color:     e.Color,
		IsRandom:  e.IsRandom,
	}
	snap := v.snap
	v.mu.Unlock()
	v.emit(snap)
	return snap, nil
}

// Leave returns to the discovery list without a notice.
func (v *Viewer) Leave() Snapshot {
	v.mu.Lock()
	v.snap = Snapshot{View: ViewDiscovery}
	snap := v.snap
	v.mu.Unlock()
	v.emit(snap)
	return snap
}

// Snapshot returns the current mirrored state.
func (v *Viewer) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Close stops listening for changes. Safe to call more than once.
func (v *Viewer) Close() {
	v.unsub()
}

// refresh re-resolves the selected event on every change signal.
func (v *Viewer) refresh() {
	v.mu.Lock()
	id := v.snap.EventID
	v.mu.Unlock()
	if id == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	e, err := v.store.FindByID(ctx, id)
	if err != nil {
		v.logger.Warn("session refresh failed", zap.String("event_id", id), zap.Error(err))
		return
	}

	v.mu.Lock()
	if v.snap.EventID != id {
		// Selection changed while we were reading.
		v.mu.Unlock()
		return
	}
	prev := v.snap
	if e == nil {
		v.snap = Snapshot{View: ViewDiscovery, Notice: NoticeEventEnded}
	} else {
		v.snap.EventName = e.Name
		v.snap.Color = e.Color
		v.snap.IsRandom = e.IsRandom
	}
	snap := v.snap
	v.mu.Unlock()

	if snap != prev {
		if e == nil {
			v.logger.Info("viewed event ended", zap.String("event_id", id))
		}
		v.emit(snap)
	}
}

func (v *Viewer) emit(s Snapshot) {
	if v.onChange != nil {
		v.onChange(s)
	}
}
