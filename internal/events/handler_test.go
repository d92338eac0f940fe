package events

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/share"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestHandler(t *testing.T, now time.Time) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewStore(NewMemoryBackend(), nil, nil)
	h := NewHandler(store, share.NewService("https://party.example/", nil, nil), nil)
	h.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/events/discover", h.Discover)
	r.GET("/events/:id", h.GetByID)
	r.GET("/events/:id/qr.png", h.QRCode)
	r.POST("/events/join", h.Join)
	r.GET("/join", h.JoinLink)
	return r, store
}

func call(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Header().Get("Content-Type") != "image/png" && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestHandler_DiscoverHidesEnded(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 22, 0, 0, 0, time.UTC)
	r, store := newTestHandler(t, now)

	past := now.Add(-5 * time.Hour).Format(time.RFC3339)
	live := now.Add(-1 * time.Hour).Format(time.RFC3339)
	two := 2.0
	_, err := store.Create(ctx, "Ended Party", &past, &two, "a")
	require.NoError(t, err)
	_, err = store.Create(ctx, "Live Party", &live, &two, "a")
	require.NoError(t, err)
	_, err = store.JoinOrCreate(ctx, "adhoc", "Evento adhoc")
	require.NoError(t, err)

	w, env := call(t, r, http.MethodGet, "/events/discover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Event
	require.NoError(t, json.Unmarshal(env.Data, &list))
	names := []string{}
	for _, e := range list {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"Live Party", "Evento adhoc"}, names)

	_, env = call(t, r, http.MethodGet, "/events/discover?q=LIVE", nil)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Live Party", list[0].Name)
}

func TestHandler_JoinSpawnsOnce(t *testing.T) {
	ctx := context.Background()
	r, store := newTestHandler(t, time.Now())

	w, env := call(t, r, http.MethodPost, "/events/join", JoinRequest{Payload: "https://party.example/?eventId=xyz&lang=pt"})
	require.Equal(t, http.StatusOK, w.Code)
	var e models.Event
	require.NoError(t, json.Unmarshal(env.Data, &e))
	assert.Equal(t, "xyz", e.ID)
	assert.Equal(t, "Evento xyz", e.Name)
	assert.Equal(t, models.ColorJoined, e.Color)
	assert.Equal(t, models.AdminQRGenerated, e.AdminID)

	call(t, r, http.MethodPost, "/events/join", JoinRequest{EventID: "xyz"})
	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	w, _ = call(t, r, http.MethodPost, "/events/join", JoinRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetAndQR(t *testing.T) {
	r, store := newTestHandler(t, time.Now())
	e, err := store.Create(context.Background(), "Festa", nil, nil, "a")
	require.NoError(t, err)

	w, _ := call(t, r, http.MethodGet, "/events/"+e.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, r, http.MethodGet, "/events/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, r, http.MethodGet, "/events/"+e.ID+"/qr.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w, _ = call(t, r, http.MethodGet, "/events/missing/qr.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_JoinLinkRedirectsWithoutEventID(t *testing.T) {
	r, store := newTestHandler(t, time.Now())

	req := httptest.NewRequest(http.MethodGet, "/join?eventId=abc&lang=pt", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "https://party.example/?lang=pt", w.Header().Get("Location"))
	assert.NotContains(t, w.Header().Get("Location"), "eventId")

	var pending *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == PendingCookie {
			pending = ck
		}
	}
	require.NotNil(t, pending)
	assert.Equal(t, "abc", pending.Value)

	e, err := store.FindByID(context.Background(), "abc")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Evento abc", e.Name)

	// Following the link again joins the same event.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/join?eventId=abc", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	all, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestHandler_JoinLinkMissingEventID(t *testing.T) {
	r, _ := newTestHandler(t, time.Now())

	for _, path := range []string{"/join", "/join?eventId=%20%20", "/join?lang=pt"} {
		w, env := call(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.False(t, env.Success, path)
	}
}
