package events

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/lifecycle"
	"github.com/color-vibe/backend/internal/links"
	"github.com/color-vibe/backend/internal/scan"
	"github.com/color-vibe/backend/internal/share"
	"github.com/color-vibe/backend/pkg/response"
)

// JoinRequest is the body for POST /events/join. Either field may be set; event_id wins.
type JoinRequest struct {
	EventID string `json:"event_id"`
	Payload string `json:"payload"`
}

// PendingCookie holds the id of an event joined through GET /join until the app reads it.
const PendingCookie = "pending_event"

// Handler serves the attendee-facing event endpoints.
type Handler struct {
	store  *Store
	share  *share.Service
	now    func() time.Time
	logger *zap.Logger
}

// NewHandler creates a public event handler.
func NewHandler(store *Store, sharer *share.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, share: sharer, now: time.Now, logger: logger}
}

// Discover handles GET /events/discover?q=.
func (h *Handler) Discover(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list events", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, lifecycle.Discoverable(list, h.now(), c.Query("q")))
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	e, err := h.store.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("find event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Join handles POST /events/join: any scanned id resolves to an event, spawning one if needed.
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	raw := req.EventID
	if raw == "" {
		raw = req.Payload
	}
	id, err := scan.ExtractEventID(raw)
	if errors.Is(err, scan.ErrEmptyPayload) {
		response.BadRequest(c, err.Error())
		return
	}
	e, err := h.store.JoinOrCreate(c.Request.Context(), id, scan.DisplayName(id))
	if err != nil {
		h.logger.Error("join event", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to join event")
		return
	}
	response.OK(c, e)
}

// JoinLink handles GET /join?eventId=, the URL a printed code opens. It joins like
// Join, then redirects to the public app URL with eventId removed so a reload
// does not join again. Other query values are carried over.
func (h *Handler) JoinLink(c *gin.Context) {
	target, err := url.Parse(h.share.BaseURL())
	if err != nil {
		h.logger.Error("parse public base url", zap.Error(err))
		response.Internal(c, "join link misconfigured")
		return
	}
	q := target.Query()
	for k, vs := range c.Request.URL.Query() {
		q[k] = vs
	}
	target.RawQuery = q.Encode()

	id, cleaned, ok := links.TakePendingEvent(target.String())
	if !ok {
		response.BadRequest(c, "missing "+links.Param)
		return
	}
	e, err := h.store.JoinOrCreate(c.Request.Context(), id, scan.DisplayName(id))
	if err != nil {
		h.logger.Error("join event", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to join event")
		return
	}
	c.SetCookie(PendingCookie, e.ID, 300, "/", "", c.Request.TLS != nil, false)
	c.Redirect(http.StatusSeeOther, cleaned)
}

// QRCode handles GET /events/:id/qr.png.
func (h *Handler) QRCode(c *gin.Context) {
	id := c.Param("id")
	e, err := h.store.FindByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("find event", zap.Error(err))
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	png, err := h.share.PNG(id)
	if err != nil {
		h.logger.Error("render qr", zap.String("event_id", id), zap.Error(err))
		response.Internal(c, "failed to render qr code")
		return
	}
	response.PNG(c, png)
}
