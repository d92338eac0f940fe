package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/metrics"
	"github.com/color-vibe/backend/internal/models"
)

// Signaler is told after every persisted mutation.
type Signaler interface {
	Notify()
}

// Store owns every Event record. Each mutation is a whole-collection
// read-modify-write, persisted before the call returns, then signalled.
type Store struct {
	mu      sync.Mutex
	backend Backend
	signal  Signaler
	logger  *zap.Logger
	newID   func() string
}

// NewStore creates an event store over backend. signal may be nil.
func NewStore(backend Backend, signal Signaler, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		backend: backend,
		signal:  signal,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// List returns every stored event. Order is not meaningful to callers.
func (s *Store) List(ctx context.Context) ([]models.Event, error) {
	return s.backend.Load(ctx)
}

// ListByAdmin returns the events whose adminId equals adminID.
func (s *Store) ListByAdmin(ctx context.Context, adminID string) ([]models.Event, error) {
	all, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Event, 0, len(all))
	for _, e := range all {
		if e.AdminID == adminID {
			out = append(out, e)
		}
	}
	return out, nil
}

// FindByID returns the event with id, or nil when absent.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Event, error) {
	all, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(all, id); i >= 0 {
		e := all[i]
		return &e, nil
	}
	return nil, nil
}

// Create allocates a fresh id and appends an admin-created event.
func (s *Store) Create(ctx context.Context, name string, startDateTime *string, durationHours *float64, adminID string) (*models.Event, error) {
	if adminID == "" {
		adminID = models.AdminAnonymous
	}
	var created models.Event
	err := s.mutate(ctx, "create", func(list []models.Event) ([]models.Event, bool) {
		id := s.newID()
		for indexOf(list, id) >= 0 {
			id = s.newID()
		}
		created = models.Event{
			ID:            id,
			Name:          name,
			Color:         models.ColorOff,
			IsActive:      true,
			IsRandom:      false,
			StartDateTime: startDateTime,
			DurationHours: durationHours,
			AdminID:       adminID,
		}.Clone()
		return append(list, created), true
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event created", zap.String("event_id", created.ID), zap.String("admin_id", adminID))
	return &created, nil
}

// JoinOrCreate returns the event with id, creating a QR-spawned one when absent.
// Repeated calls with the same id never create duplicates within this process.
func (s *Store) JoinOrCreate(ctx context.Context, id, defaultName string) (*models.Event, error) {
	var result models.Event
	var spawned bool
	err := s.mutate(ctx, "join", func(list []models.Event) ([]models.Event, bool) {
		if i := indexOf(list, id); i >= 0 {
			result = list[i]
			return list, false
		}
		result = models.Event{
			ID:       id,
			Name:     defaultName,
			Color:    models.ColorJoined,
			IsActive: true,
			IsRandom: false,
			AdminID:  models.AdminQRGenerated,
		}
		spawned = true
		return append(list, result), true
	})
	if err != nil {
		return nil, err
	}
	if spawned {
		s.logger.Info("event spawned from join", zap.String("event_id", id))
	}
	return &result, nil
}

// UpdateColor sets the live color. No-op when id is absent.
func (s *Store) UpdateColor(ctx context.Context, id, color string) error {
	return s.mutate(ctx, "update_color", func(list []models.Event) ([]models.Event, bool) {
		i := indexOf(list, id)
		if i < 0 {
			return list, false
		}
		list[i].Color = color
		return list, true
	})
}

// UpdateRandom sets the live random-mode flag. No-op when id is absent.
func (s *Store) UpdateRandom(ctx context.Context, id string, isRandom bool) error {
	return s.mutate(ctx, "update_random", func(list []models.Event) ([]models.Event, bool) {
		i := indexOf(list, id)
		if i < 0 {
			return list, false
		}
		list[i].IsRandom = isRandom
		return list, true
	})
}

// Remove deletes the event with id if present and persists regardless.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", func(list []models.Event) ([]models.Event, bool) {
		out := list[:0]
		for _, e := range list {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out, true
	})
}

// RemoveWhere drops every event matching drop in one batch rewrite and returns how
// many were removed. Nothing is written when nothing matches.
func (s *Store) RemoveWhere(ctx context.Context, drop func(models.Event) bool) (int, error) {
	removed := 0
	err := s.mutate(ctx, "prune", func(list []models.Event) ([]models.Event, bool) {
		out := make([]models.Event, 0, len(list))
		for _, e := range list {
			if drop(e) {
				continue
			}
			out = append(out, e)
		}
		removed = len(list) - len(out)
		return out, removed > 0
	})
	return removed, err
}

// mutate runs fn over the current collection under the store lock and persists
// the result when fn reports a change. The signal fires after the lock is released.
func (s *Store) mutate(ctx context.Context, op string, fn func([]models.Event) ([]models.Event, bool)) error {
	s.mu.Lock()
	list, err := s.backend.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next, changed := fn(list)
	if changed {
		if err := s.backend.Save(ctx, next); err != nil {
			s.mu.Unlock()
			return err
		}
		metrics.StoreWrites.WithLabelValues(op).Inc()
	}
	s.mu.Unlock()

	if changed && s.signal != nil {
		s.signal.Notify()
	}
	return nil
}

func indexOf(list []models.Event, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
