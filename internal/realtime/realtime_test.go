package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/notify"
	"github.com/color-vibe/backend/internal/session"
)

func bareClient(hub *Hub, id string) *Client {
	return &Client{ID: id, hub: hub, send: make(chan WSMessage, 8)}
}

func TestHub_MoveTracksAudience(t *testing.T) {
	hub := NewHub(nil)
	counts := map[string]int{}
	hub.SetAudienceChangeHandler(func(eventID string, n int) { counts[eventID] = n })

	a, b := bareClient(hub, "a"), bareClient(hub, "b")
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.AudienceCount(""))

	hub.Move(a, "e1")
	hub.Move(b, "e1")
	assert.Equal(t, 2, hub.AudienceCount("e1"))
	assert.Equal(t, 2, counts["e1"])

	hub.Move(a, "e2")
	assert.Equal(t, 1, counts["e1"])
	assert.Equal(t, 1, counts["e2"])

	hub.Unregister(b)
	assert.Equal(t, 0, counts["e1"])
	assert.Equal(t, 0, hub.AudienceCount("e1"))

	// A late session change must not resurrect an unregistered screen.
	hub.Move(b, "e3")
	assert.Equal(t, 0, hub.AudienceCount("e3"))
}

func TestHub_BroadcastOnlyToRoom(t *testing.T) {
	hub := NewHub(nil)
	a, b := bareClient(hub, "a"), bareClient(hub, "b")
	hub.Register(a)
	hub.Register(b)
	hub.Move(a, "e1")

	hub.BroadcastToEvent("e1", EventAudience, map[string]int{"count": 1})
	require.Len(t, a.send, 1)
	assert.Len(t, b.send, 0)
	msg := <-a.send
	assert.Equal(t, EventAudience, msg.Event)
	assert.JSONEq(t, `{"count":1}`, string(msg.Data))
}

func readUntil(t *testing.T, conn *websocket.Conn, event string, match func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event != event {
			continue
		}
		var s session.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &s))
		if match == nil || match(s) {
			return s
		}
	}
}

func TestServeWs_MirrorsLiveEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	n := notify.New(nil, nil)
	store := events.NewStore(events.NewMemoryBackend(), n, nil)
	e, err := store.Create(ctx, "Festa", nil, nil, "admin-1")
	require.NoError(t, err)

	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", ServeWs(hub, store, n, nil, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?event_id=" + e.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	s := readUntil(t, conn, EventState, func(s session.Snapshot) bool { return s.View == session.ViewLightScreen })
	assert.Equal(t, e.ID, s.EventID)
	assert.Equal(t, "#000000", s.Color)
	assert.Equal(t, 1, hub.AudienceCount(e.ID))

	require.NoError(t, store.UpdateColor(ctx, e.ID, "#00FF00"))
	s = readUntil(t, conn, EventState, func(s session.Snapshot) bool { return s.Color == "#00FF00" })
	assert.Equal(t, session.ViewLightScreen, s.View)

	require.NoError(t, store.Remove(ctx, e.ID))
	s = readUntil(t, conn, EventState, func(s session.Snapshot) bool { return s.View == session.ViewDiscovery })
	assert.Equal(t, session.NoticeEventEnded, s.Notice)
	assert.Equal(t, 0, hub.AudienceCount(e.ID))
}

func TestServeWs_SelectUnknownReportsError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	n := notify.New(nil, nil)
	store := events.NewStore(events.NewMemoryBackend(), n, nil)
	r := gin.New()
	r.GET("/ws", ServeWs(NewHub(nil), store, n, nil, nil))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(WSMessage{Event: EventSelect, Data: json.RawMessage(`{"event_id":"nope"}`)}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == EventError {
			assert.Contains(t, string(msg.Data), "event not found")
			return
		}
	}
}
