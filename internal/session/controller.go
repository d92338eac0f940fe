package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/metrics"
	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/palette"
)

// State is the admin preview/publish state for one selected event.
type State string

const (
	StateIdle       State = "idle"
	StateStaged     State = "staged"
	StatePreviewing State = "previewing"
)

var (
	ErrNoEventSelected = errors.New("no event selected")
	ErrInvalidColor    = errors.New("color must be #RGB or #RRGGBB")
)

// LiveStore is the subset of the event store an admin controller drives.
type LiveStore interface {
	Finder
	UpdateColor(ctx context.Context, id, color string) error
	UpdateRandom(ctx context.Context, id string, isRandom bool) error
	Remove(ctx context.Context, id string) error
}

// Staged is the admin-local snapshot; nothing in it is persisted.
type Staged struct {
	State         State    `json:"state"`
	EventID       string   `json:"event_id,omitempty"`
	PreviewColor  string   `json:"preview_color,omitempty"`
	PreviewRandom bool     `json:"preview_random"`
	Palette       []string `json:"palette"`
}

// Controller holds one admin's staged color/mode and commits it on publish.
// Publish is the only transition that writes to the store.
type Controller struct {
	mu            sync.Mutex
	adminID       string
	store         LiveStore
	palettes      *palette.Service
	logger        *zap.Logger
	state         State
	eventID       string
	previewColor  string
	previewRandom bool
	suggestions   []string
}

// NewController creates an idle controller for adminID.
func NewController(adminID string, store LiveStore, palettes *palette.Service, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		adminID:     adminID,
		store:       store,
		palettes:    palettes,
		logger:      logger,
		state:       StateIdle,
		suggestions: append([]string(nil), palette.Initial...),
	}
}

// Select stages the event with id, resetting staged values from its live fields.
// Unpublished edits on a previously selected event are discarded.
func (c *Controller) Select(ctx context.Context, id string) (Staged, error) {
	e, err := c.store.FindByID(ctx, id)
	if err != nil {
		return c.Snapshot(), err
	}
	if e == nil {
		return c.Snapshot(), ErrEventNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateStaged
	c.eventID = e.ID
	c.previewColor = e.Color
	c.previewRandom = e.IsRandom
	return c.snapshotLocked(), nil
}

// SetPreviewColor changes the staged color without touching the store.
func (c *Controller) SetPreviewColor(color string) (Staged, error) {
	if !models.ValidColor(color) {
		return c.Snapshot(), ErrInvalidColor
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return c.snapshotLocked(), ErrNoEventSelected
	}
	c.previewColor = color
	return c.snapshotLocked(), nil
}

// SetPreviewRandom changes the staged random-mode flag without touching the store.
func (c *Controller) SetPreviewRandom(isRandom bool) (Staged, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return c.snapshotLocked(), ErrNoEventSelected
	}
	c.previewRandom = isRandom
	return c.snapshotLocked(), nil
}

// EnterPreview switches to a full-screen rendering of the staged values. Pure view transition.
func (c *Controller) EnterPreview() (Staged, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return c.snapshotLocked(), ErrNoEventSelected
	}
	c.state = StatePreviewing
	return c.snapshotLocked(), nil
}

// ExitPreview returns from preview to staging.
func (c *Controller) ExitPreview() Staged {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePreviewing {
		c.state = StateStaged
	}
	return c.snapshotLocked()
}

// Publish writes the staged color then the staged random flag to the live event
// and returns to Staged. Publishing to a since-deleted id is a silent no-op.
func (c *Controller) Publish(ctx context.Context) (Staged, error) {
	c.mu.Lock()
	if c.state == StateIdle {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, ErrNoEventSelected
	}
	id, color, random := c.eventID, c.previewColor, c.previewRandom
	c.mu.Unlock()

	if err := c.store.UpdateColor(ctx, id, color); err != nil {
		return c.Snapshot(), err
	}
	if err := c.store.UpdateRandom(ctx, id, random); err != nil {
		return c.Snapshot(), err
	}
	metrics.Publishes.Inc()
	c.logger.Info("published", zap.String("admin_id", c.adminID), zap.String("event_id", id),
		zap.String("color", color), zap.Bool("is_random", random))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StatePreviewing && c.eventID == id {
		c.state = StateStaged
	}
	return c.snapshotLocked(), nil
}

// Delete removes the event and drops the selection if it was the selected one.
func (c *Controller) Delete(ctx context.Context, id string) (Staged, error) {
	if err := c.store.Remove(ctx, id); err != nil {
		return c.Snapshot(), err
	}
	return c.Deselect(id), nil
}

// Deselect returns to Idle when id is the selected event.
func (c *Controller) Deselect(id string) Staged {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventID == id {
		c.state = StateIdle
		c.eventID = ""
		c.previewColor = ""
		c.previewRandom = false
	}
	return c.snapshotLocked()
}

// GeneratePalette asks for colors matching the selected event's name. Never fails on
// suggestion errors; only an idle controller or a store error is reported.
func (c *Controller) GeneratePalette(ctx context.Context) (Staged, error) {
	c.mu.Lock()
	id := c.eventID
	c.mu.Unlock()
	if id == "" {
		return c.Snapshot(), ErrNoEventSelected
	}
	e, err := c.store.FindByID(ctx, id)
	if err != nil {
		return c.Snapshot(), err
	}
	if e == nil {
		return c.Snapshot(), ErrEventNotFound
	}
	colors := c.palettes.ForEvent(ctx, e.Name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.suggestions = colors
	return c.snapshotLocked(), nil
}

// Snapshot returns the staged state.
func (c *Controller) Snapshot() Staged {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Staged {
	return Staged{
		State:         c.state,
		EventID:       c.eventID,
		PreviewColor:  c.previewColor,
		PreviewRandom: c.previewRandom,
		Palette:       append([]string(nil), c.suggestions...),
	}
}
