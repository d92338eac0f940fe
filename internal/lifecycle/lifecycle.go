package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/metrics"
	"github.com/color-vibe/backend/internal/models"
)

// Pruner removes every event matching drop in one batch rewrite.
type Pruner interface {
	RemoveWhere(ctx context.Context, drop func(models.Event) bool) (int, error)
}

// RemovedFunc is told which events a sweep dropped.
type RemovedFunc func(ctx context.Context, ids []string)

// Manager prunes events past their retention window.
type Manager struct {
	store     Pruner
	now       func() time.Time
	onRemoved RemovedFunc
	logger    *zap.Logger
}

// NewManager creates a lifecycle manager over store.
func NewManager(store Pruner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, now: time.Now, logger: logger}
}

// OnRemoved sets a hook run after each sweep that dropped events.
func (m *Manager) OnRemoved(fn RemovedFunc) {
	m.onRemoved = fn
}

// Cleanup drops every event whose active window ended more than 30 days before now.
// Events without a start are always retained.
func (m *Manager) Cleanup(ctx context.Context) (int, error) {
	return m.CleanupAt(ctx, m.now())
}

// CleanupAt is Cleanup evaluated at a fixed instant.
func (m *Manager) CleanupAt(ctx context.Context, now time.Time) (int, error) {
	var ids []string
	removed, err := m.store.RemoveWhere(ctx, func(e models.Event) bool {
		if e.Expired(now) {
			ids = append(ids, e.ID)
			return true
		}
		return false
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 && m.onRemoved != nil {
		m.onRemoved(ctx, ids)
	}
	if removed > 0 {
		metrics.CleanupRemoved.Add(float64(removed))
		m.logger.Info("cleaned up old events", zap.Int("removed", removed))
	}
	return removed, nil
}

// Schedule runs Cleanup on a cron spec (e.g. "@every 1h") until the returned stop is called.
func (m *Manager) Schedule(spec string) (stop func(), err error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, err := m.Cleanup(context.Background()); err != nil {
			m.logger.Error("scheduled cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	c.Start()
	m.logger.Info("cleanup scheduled", zap.String("spec", spec))
	return func() { <-c.Stop().Done() }, nil
}

// Discoverable returns the attendee-facing list: events whose name contains search
// (case-insensitive) and whose active window has not ended at now.
func Discoverable(list []models.Event, now time.Time, search string) []models.Event {
	needle := strings.ToLower(search)
	out := make([]models.Event, 0, len(list))
	for _, e := range list {
		if !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		if e.Ended(now) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterByName keeps events whose name contains search, case-insensitively.
func FilterByName(list []models.Event, search string) []models.Event {
	needle := strings.ToLower(search)
	out := make([]models.Event, 0, len(list))
	for _, e := range list {
		if strings.Contains(strings.ToLower(e.Name), needle) {
			out = append(out, e)
		}
	}
	return out
}
