package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/palette"
	"github.com/color-vibe/backend/internal/session"
	"github.com/color-vibe/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // screens are opened from scanned links on any origin
	},
}

// Outbound and inbound event names.
const (
	EventHello    = "hello"
	EventState    = "state"
	EventError    = "error"
	EventAudience = "audience_count"
	EventSelect   = "select"
	EventLeave    = "leave"
)

const selectTimeout = 5 * time.Second

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hello is sent once per connection.
type Hello struct {
	ClientID string   `json:"client_id"`
	Disco    []string `json:"disco"`
}

// Client is one light screen: a WebSocket connection owning one attendee session.
type Client struct {
	ID     string
	UserID string
	room   string
	gone   bool
	hub    *Hub
	viewer *session.Viewer
	conn   *websocket.Conn
	send   chan WSMessage
	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID string, logger *zap.Logger) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan WSMessage, 64),
		logger: logger,
	}
}

// ServeWs upgrades to a light-screen connection. ?event_id= opens directly on that
// event; ?token= is optional and only identifies the user in logs.
func ServeWs(hub *Hub, store session.Finder, changes session.Subscriber, logger *zap.Logger, jwtValidate func(token string) (userID, role string, err error)) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		var userID string
		if token := c.Query("token"); token != "" && jwtValidate != nil {
			id, _, err := jwtValidate(token)
			if err != nil {
				response.Unauthorized(c, "invalid token")
				return
			}
			userID = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(hub, conn, userID, logger)
		client.viewer = session.NewViewer(store, changes, client.onSnapshot, logger)
		hub.Register(client)
		client.pushJSON(EventHello, Hello{ClientID: client.ID, Disco: palette.Disco})
		client.pushJSON(EventState, client.viewer.Snapshot())
		if id := c.Query("event_id"); id != "" {
			client.selectEvent(id)
		}

		go client.writePump()
		client.readPump()
	}
}

// onSnapshot follows the session: the screen changes room with its event and gets the new state.
func (c *Client) onSnapshot(s session.Snapshot) {
	c.hub.Move(c, s.EventID)
	c.pushJSON(EventState, s)
}

func (c *Client) selectEvent(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), selectTimeout)
	defer cancel()
	if _, err := c.viewer.Select(ctx, id); err != nil {
		c.pushJSON(EventError, map[string]string{"message": err.Error()})
	}
}

func (c *Client) push(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		// buffer full, skip
	}
}

func (c *Client) pushJSON(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.push(WSMessage{Event: event, Data: data})
}

func (c *Client) readPump() {
	defer func() {
		c.viewer.Close()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case EventSelect:
			var payload struct {
				EventID string `json:"event_id"`
			}
			if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.EventID == "" {
				c.pushJSON(EventError, map[string]string{"message": "event_id required"})
				continue
			}
			c.selectEvent(payload.EventID)
		case EventLeave:
			c.viewer.Leave()
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
