package session

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/lifecycle"
	"github.com/color-vibe/backend/internal/middleware"
	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/share"
	"github.com/color-vibe/backend/pkg/response"
)

// CreateEventRequest is the body for POST /admin/events.
type CreateEventRequest struct {
	Name          string   `json:"name" binding:"required"`
	StartDateTime string   `json:"start_date_time" binding:"required"`
	DurationHours *float64 `json:"duration_hours" binding:"required,gt=0"`
}

// SelectRequest is the body for POST /admin/session/select.
type SelectRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// PreviewRequest is the body for PATCH /admin/session/preview.
type PreviewRequest struct {
	Color    *string `json:"color"`
	IsRandom *bool   `json:"is_random"`
}

// Handler serves the admin console: owned events and the preview/publish session.
type Handler struct {
	store    *events.Store
	registry *Registry
	share    *share.Service
	logger   *zap.Logger
}

// NewHandler creates an admin handler.
func NewHandler(store *events.Store, registry *Registry, sharer *share.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, registry: registry, share: sharer, logger: logger}
}

func adminID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserID)
}

// ListEvents handles GET /admin/events. Query ?q= filters by name.
func (h *Handler) ListEvents(c *gin.Context) {
	list, err := h.store.ListByAdmin(c.Request.Context(), adminID(c))
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, lifecycle.FilterByName(list, c.Query("q")))
}

// CreateEvent handles POST /admin/events. The new event becomes the selected one.
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, ok := models.ParseStart(req.StartDateTime); !ok {
		response.BadRequest(c, "invalid start_date_time")
		return
	}
	start := req.StartDateTime
	e, err := h.store.Create(c.Request.Context(), req.Name, &start, req.DurationHours, adminID(c))
	if err != nil {
		h.logger.Error("create event", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	staged, err := h.registry.Get(adminID(c)).Select(c.Request.Context(), e.ID)
	if err != nil {
		h.logger.Warn("auto-select created event", zap.String("event_id", e.ID), zap.Error(err))
	}
	response.Created(c, gin.H{"event": e, "session": staged})
}

// DeleteEvent handles DELETE /admin/events/:id (owner only).
func (h *Handler) DeleteEvent(c *gin.Context) {
	id := c.Param("id")
	e, ok := h.owned(c, id)
	if !ok {
		return
	}
	if e == nil {
		response.NoContent(c)
		return
	}
	if _, err := h.registry.Get(adminID(c)).Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete event", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	h.registry.Deselect(id)
	h.share.Forget(c.Request.Context(), id)
	response.NoContent(c)
}

// ShareEvent handles POST /admin/events/:id/share.
func (h *Handler) ShareEvent(c *gin.Context) {
	id := c.Param("id")
	e, ok := h.owned(c, id)
	if !ok {
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	u, err := h.share.Publish(c.Request.Context(), id)
	if errors.Is(err, share.ErrNoUploader) {
		response.ServiceUnavailable(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("share event", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to publish share code")
		return
	}
	response.OK(c, gin.H{"event_id": id, "url": u, "join_url": h.share.URL(id)})
}

// owned loads id and rejects it when another admin owns it. A nil event with
// ok=true means absent.
func (h *Handler) owned(c *gin.Context, id string) (*models.Event, bool) {
	e, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("find event", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to load event")
		return nil, false
	}
	if e != nil && e.AdminID != adminID(c) {
		response.Forbidden(c, "only the event owner can do this")
		return nil, false
	}
	return e, true
}

// Get handles GET /admin/session.
func (h *Handler) Get(c *gin.Context) {
	response.OK(c, h.registry.Get(adminID(c)).Snapshot())
}

// Reset handles DELETE /admin/session (logout), discarding staged state.
func (h *Handler) Reset(c *gin.Context) {
	h.registry.Drop(adminID(c))
	response.NoContent(c)
}

// Select handles POST /admin/session/select. Only the owner may select an event,
// so preview and publish never reach another admin's event.
func (h *Handler) Select(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if _, ok := h.owned(c, req.EventID); !ok {
		return
	}
	staged, err := h.registry.Get(adminID(c)).Select(c.Request.Context(), req.EventID)
	h.respond(c, staged, err)
}

// Preview handles PATCH /admin/session/preview.
func (h *Handler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctrl := h.registry.Get(adminID(c))
	staged := ctrl.Snapshot()
	var err error
	if req.Color != nil {
		staged, err = ctrl.SetPreviewColor(*req.Color)
		if err != nil {
			h.respond(c, staged, err)
			return
		}
	}
	if req.IsRandom != nil {
		staged, err = ctrl.SetPreviewRandom(*req.IsRandom)
	}
	h.respond(c, staged, err)
}

// EnterPreview handles POST /admin/session/preview/enter.
func (h *Handler) EnterPreview(c *gin.Context) {
	staged, err := h.registry.Get(adminID(c)).EnterPreview()
	h.respond(c, staged, err)
}

// ExitPreview handles POST /admin/session/preview/exit.
func (h *Handler) ExitPreview(c *gin.Context) {
	response.OK(c, h.registry.Get(adminID(c)).ExitPreview())
}

// Publish handles POST /admin/session/publish.
func (h *Handler) Publish(c *gin.Context) {
	staged, err := h.registry.Get(adminID(c)).Publish(c.Request.Context())
	h.respond(c, staged, err)
}

// Palette handles POST /admin/session/palette.
func (h *Handler) Palette(c *gin.Context) {
	staged, err := h.registry.Get(adminID(c)).GeneratePalette(c.Request.Context())
	h.respond(c, staged, err)
}

func (h *Handler) respond(c *gin.Context, staged Staged, err error) {
	switch {
	case err == nil:
		response.OK(c, staged)
	case errors.Is(err, ErrInvalidColor):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrEventNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNoEventSelected):
		response.Conflict(c, err.Error())
	default:
		h.logger.Error("admin session", zap.String("admin_id", adminID(c)), zap.Error(err))
		response.Internal(c, "session operation failed")
	}
}
