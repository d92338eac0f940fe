package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/lifecycle"
	"github.com/color-vibe/backend/internal/models"
)

var base = time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

func scheduled(t *testing.T, s *events.Store, name string, start time.Time, hours *float64) *models.Event {
	t.Helper()
	ts := start.Format(time.RFC3339)
	e, err := s.Create(context.Background(), name, &ts, hours, "admin")
	require.NoError(t, err)
	return e
}

func hoursPtr(h float64) *float64 { return &h }

func TestDiscoverable_WindowFiltering(t *testing.T) {
	ctx := context.Background()
	s := events.NewStore(events.NewMemoryBackend(), nil, nil)
	e := scheduled(t, s, "Festa", base, hoursPtr(2))

	all, err := s.List(ctx)
	require.NoError(t, err)

	assert.Len(t, lifecycle.Discoverable(all, base.Add(time.Hour), ""), 1)
	assert.Empty(t, lifecycle.Discoverable(all, base.Add(3*time.Hour), ""))

	// Still listed for its owner.
	mine, err := s.ListByAdmin(ctx, "admin")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, e.ID, mine[0].ID)
}

func TestDiscoverable_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	list := []models.Event{
		{ID: "1", Name: "Neon NIGHT"},
		{ID: "2", Name: "Sunset"},
		{ID: "3", Name: "night market"},
	}
	got := lifecycle.Discoverable(list, base, "Night")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.Len(t, lifecycle.Discoverable(list, base, ""), 3)
}

func TestDiscoverable_AdHocAndFutureEventsVisible(t *testing.T) {
	future := base.Add(48 * time.Hour).Format(time.RFC3339)
	list := []models.Event{
		{ID: "adhoc", Name: "Evento adhoc"},
		{ID: "future", Name: "Later", StartDateTime: &future, DurationHours: hoursPtr(1)},
	}
	assert.Len(t, lifecycle.Discoverable(list, base, ""), 2)
}

func TestDiscoverable_NonPositiveDurationNeverEnds(t *testing.T) {
	start := base.Format(time.RFC3339)
	list := []models.Event{
		{ID: "zero", Name: "Zero", StartDateTime: &start, DurationHours: hoursPtr(0)},
		{ID: "neg", Name: "Neg", StartDateTime: &start, DurationHours: hoursPtr(-1)},
	}
	assert.Len(t, lifecycle.Discoverable(list, base.Add(72*time.Hour), ""), 2)
}

func TestCleanup_RetentionBoundary(t *testing.T) {
	ctx := context.Background()
	s := events.NewStore(events.NewMemoryBackend(), nil, nil)
	m := lifecycle.NewManager(s, nil)
	e := scheduled(t, s, "Old", base, hoursPtr(2))
	end := base.Add(2 * time.Hour)

	removed, err := m.CleanupAt(ctx, end.Add(29*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	got, err := s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	removed, err = m.CleanupAt(ctx, end.Add(31*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	got, err = s.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCleanup_DefaultDurationUsedWhenAbsent(t *testing.T) {
	ctx := context.Background()
	s := events.NewStore(events.NewMemoryBackend(), nil, nil)
	m := lifecycle.NewManager(s, nil)
	scheduled(t, s, "NoDuration", base, nil)

	removed, err := m.CleanupAt(ctx, base.Add(2*time.Hour+30*24*time.Hour-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	removed, err = m.CleanupAt(ctx, base.Add(2*time.Hour+30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCleanup_UnscheduledEventsNeverRemoved(t *testing.T) {
	ctx := context.Background()
	s := events.NewStore(events.NewMemoryBackend(), nil, nil)
	m := lifecycle.NewManager(s, nil)
	_, err := s.JoinOrCreate(ctx, "qr-event", "Evento qr-event")
	require.NoError(t, err)
	_, err = s.Create(ctx, "manual", nil, nil, "admin")
	require.NoError(t, err)

	removed, err := m.CleanupAt(ctx, base.Add(100*365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCleanup_SingleBatchRewrite(t *testing.T) {
	ctx := context.Background()
	backend := events.NewMemoryBackend()
	sig := &countSignal{}
	s := events.NewStore(backend, sig, nil)
	m := lifecycle.NewManager(s, nil)
	var gone []string
	m.OnRemoved(func(_ context.Context, ids []string) { gone = append(gone, ids...) })
	a := scheduled(t, s, "a", base, hoursPtr(1))
	b := scheduled(t, s, "b", base, hoursPtr(1))
	scheduled(t, s, "c", base.Add(90*24*time.Hour), hoursPtr(1))
	sig.n = 0

	removed, err := m.CleanupAt(ctx, base.Add(60*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, sig.n)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, gone)

	gone = nil
	removed, err = m.CleanupAt(ctx, base.Add(60*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Nil(t, gone)
}

func TestSchedule_InvalidSpec(t *testing.T) {
	m := lifecycle.NewManager(events.NewStore(events.NewMemoryBackend(), nil, nil), nil)
	_, err := m.Schedule("not a cron spec")
	require.Error(t, err)

	stop, err := m.Schedule("@every 1h")
	require.NoError(t, err)
	stop()
}

type countSignal struct{ n int }

func (c *countSignal) Notify() { c.n++ }
