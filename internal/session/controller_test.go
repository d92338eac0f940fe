package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/palette"
)

type stubSuggester struct {
	colors []string
	err    error
}

func (s stubSuggester) Suggest(context.Context, string) ([]string, error) { return s.colors, s.err }

func newTestController(t *testing.T) (*Controller, *events.Store, *models.Event) {
	t.Helper()
	store, _ := newTestEnv(t)
	e, err := store.Create(context.Background(), "Festa", nil, nil, "admin-1")
	require.NoError(t, err)
	return NewController("admin-1", store, palette.NewService(nil, nil), nil), store, e
}

func TestController_StartsIdle(t *testing.T) {
	c, _, _ := newTestController(t)
	snap := c.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, palette.Initial, snap.Palette)

	_, err := c.SetPreviewColor("#FFFFFF")
	assert.ErrorIs(t, err, ErrNoEventSelected)
	_, err = c.EnterPreview()
	assert.ErrorIs(t, err, ErrNoEventSelected)
	_, err = c.Publish(context.Background())
	assert.ErrorIs(t, err, ErrNoEventSelected)
}

func TestController_StagedEditsStayLocal(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)

	_, err := c.Select(ctx, e.ID)
	require.NoError(t, err)
	_, err = c.SetPreviewColor("#123456")
	require.NoError(t, err)
	_, err = c.SetPreviewRandom(true)
	require.NoError(t, err)
	snap, err := c.EnterPreview()
	require.NoError(t, err)
	assert.Equal(t, StatePreviewing, snap.State)
	c.ExitPreview()

	live, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ColorOff, live.Color)
	assert.False(t, live.IsRandom)
}

func TestController_PublishCommitsStagedValues(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)

	_, err := c.Select(ctx, e.ID)
	require.NoError(t, err)
	_, err = c.SetPreviewColor("#ABCDEF")
	require.NoError(t, err)
	_, err = c.SetPreviewRandom(true)
	require.NoError(t, err)
	_, err = c.EnterPreview()
	require.NoError(t, err)

	snap, err := c.Publish(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateStaged, snap.State)

	live, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ABCDEF", live.Color)
	assert.True(t, live.IsRandom)

	// Publishing the same staged values again changes nothing.
	_, err = c.Publish(ctx)
	require.NoError(t, err)
	again, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, *live, *again)
}

func TestController_SelectResetsFromLive(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)
	other, err := store.Create(ctx, "Outra", nil, nil, "admin-1")
	require.NoError(t, err)
	require.NoError(t, store.UpdateColor(ctx, other.ID, "#00FF00"))

	_, err = c.Select(ctx, e.ID)
	require.NoError(t, err)
	_, err = c.SetPreviewColor("#FFFFFF")
	require.NoError(t, err)

	snap, err := c.Select(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "#00FF00", snap.PreviewColor)

	snap, err = c.Select(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ColorOff, snap.PreviewColor)
}

func TestController_InvalidColor(t *testing.T) {
	ctx := context.Background()
	c, _, e := newTestController(t)
	_, err := c.Select(ctx, e.ID)
	require.NoError(t, err)

	for _, bad := range []string{"red", "#12", "123456", "#GGGGGG"} {
		_, err := c.SetPreviewColor(bad)
		assert.ErrorIs(t, err, ErrInvalidColor, bad)
	}
	assert.Equal(t, models.ColorOff, c.Snapshot().PreviewColor)
}

func TestController_DeleteSelectedGoesIdle(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)
	_, err := c.Select(ctx, e.ID)
	require.NoError(t, err)

	snap, err := c.Delete(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.EventID)

	got, err := store.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestController_DeleteOtherKeepsSelection(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)
	other, err := store.Create(ctx, "Outra", nil, nil, "admin-1")
	require.NoError(t, err)
	_, err = c.Select(ctx, e.ID)
	require.NoError(t, err)

	snap, err := c.Delete(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, StateStaged, snap.State)
	assert.Equal(t, e.ID, snap.EventID)
}

func TestController_PublishToDeletedEventIsNoop(t *testing.T) {
	ctx := context.Background()
	c, store, e := newTestController(t)
	_, err := c.Select(ctx, e.ID)
	require.NoError(t, err)
	_, err = c.SetPreviewColor("#FFFFFF")
	require.NoError(t, err)

	// Removed behind the controller's back, e.g. by another admin.
	require.NoError(t, store.Remove(ctx, e.ID))

	_, err = c.Publish(ctx)
	require.NoError(t, err)
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestController_GeneratePalette(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestEnv(t)
	e, err := store.Create(ctx, "Neon", nil, nil, "admin-1")
	require.NoError(t, err)

	c := NewController("admin-1", store, palette.NewService(stubSuggester{colors: []string{"ff0000"}}, nil), nil)
	_, err = c.GeneratePalette(ctx)
	assert.ErrorIs(t, err, ErrNoEventSelected)

	_, err = c.Select(ctx, e.ID)
	require.NoError(t, err)
	snap, err := c.GeneratePalette(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"#FF0000"}, snap.Palette)

	c = NewController("admin-1", store, palette.NewService(stubSuggester{err: errors.New("down")}, nil), nil)
	_, err = c.Select(ctx, e.ID)
	require.NoError(t, err)
	snap, err = c.GeneratePalette(ctx)
	require.NoError(t, err)
	assert.Equal(t, palette.Fallback, snap.Palette)
}

func TestRegistry_PerAdmin(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestEnv(t)
	e, err := store.Create(ctx, "Festa", nil, nil, "a")
	require.NoError(t, err)

	reg := NewRegistry(store, nil, nil)
	a := reg.Get("a")
	assert.Same(t, a, reg.Get("a"))
	assert.NotSame(t, a, reg.Get("b"))

	_, err = a.Select(ctx, e.ID)
	require.NoError(t, err)
	_, err = reg.Get("b").Select(ctx, e.ID)
	require.NoError(t, err)

	reg.Deselect(e.ID)
	assert.Equal(t, StateIdle, reg.Get("a").Snapshot().State)
	assert.Equal(t, StateIdle, reg.Get("b").Snapshot().State)

	reg.Drop("a")
	assert.NotSame(t, a, reg.Get("a"))
}
