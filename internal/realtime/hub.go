package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/metrics"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// AudienceChangeHandler is called when the number of screens on an event changes.
type AudienceChangeHandler func(eventID string, count int)

// Hub maintains event_id -> set of screens. Screens still on the discovery
// list are kept under the empty event id.
type Hub struct {
	rooms      map[string]map[string]*Client
	mu         sync.RWMutex
	logger     *zap.Logger
	onAudience AudienceChangeHandler
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]map[string]*Client),
		logger: logger,
	}
}

// SetAudienceChangeHandler sets the callback for audience count changes.
func (h *Hub) SetAudienceChangeHandler(fn AudienceChangeHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAudience = fn
}

// Register adds a screen to the room of its current event.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	room := c.room
	h.addLocked(room, c)
	count := len(h.rooms[room])
	onAudience := h.onAudience
	h.mu.Unlock()

	metrics.Screens.Inc()
	if onAudience != nil && room != "" {
		onAudience(room, count)
	}
	h.logger.Debug("screen connected", zap.String("client_id", c.ID), zap.String("event_id", room))
}

// Unregister removes a screen from whatever room it is in.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	room := c.room
	c.gone = true
	count := h.removeLocked(room, c)
	onAudience := h.onAudience
	h.mu.Unlock()

	metrics.Screens.Dec()
	if onAudience != nil && room != "" {
		onAudience(room, count)
	}
	h.logger.Debug("screen disconnected", zap.String("client_id", c.ID), zap.String("event_id", room))
}

// Move switches a screen to the room of eventID. No-op when already there
// or once the screen is unregistered.
func (h *Hub) Move(c *Client, eventID string) {
	h.mu.Lock()
	from := c.room
	if c.gone || from == eventID {
		h.mu.Unlock()
		return
	}
	left := h.removeLocked(from, c)
	c.room = eventID
	h.addLocked(eventID, c)
	joined := len(h.rooms[eventID])
	onAudience := h.onAudience
	h.mu.Unlock()

	if onAudience != nil {
		if from != "" {
			onAudience(from, left)
		}
		if eventID != "" {
			onAudience(eventID, joined)
		}
	}
}

func (h *Hub) addLocked(room string, c *Client) {
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
	}
	h.rooms[room][c.ID] = c
}

func (h *Hub) removeLocked(room string, c *Client) int {
	m, ok := h.rooms[room]
	if !ok {
		return 0
	}
	delete(m, c.ID)
	if len(m) == 0 {
		delete(h.rooms, room)
		return 0
	}
	return len(m)
}

// BroadcastToEvent sends a message to every screen on eventID (local only).
func (h *Hub) BroadcastToEvent(eventID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[eventID]))
	for _, c := range h.rooms[eventID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.push(msg)
	}
}

// AudienceCount returns the number of screens showing eventID on this instance.
func (h *Hub) AudienceCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[eventID])
}
