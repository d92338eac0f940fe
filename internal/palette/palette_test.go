package palette

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSuggester struct {
	colors []string
	err    error
}

func (s stubSuggester) Suggest(context.Context, string) ([]string, error) { return s.colors, s.err }

func TestService_ForEvent(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name      string
		suggester Suggester
		want      []string
	}{
		{"unconfigured", nil, Unconfigured},
		{"error falls back", stubSuggester{err: errors.New("quota")}, Fallback},
		{"empty falls back", stubSuggester{colors: []string{}}, Fallback},
		{"all invalid falls back", stubSuggester{colors: []string{"red", "#12"}}, Fallback},
		{"sanitized", stubSuggester{colors: []string{"ff0000", " #00ff00 ", "bogus"}}, []string{"#FF0000", "#00FF00"}},
		{"capped at five", stubSuggester{colors: []string{"#111111", "#222222", "#333333", "#444444", "#555555", "#666666"}},
			[]string{"#111111", "#222222", "#333333", "#444444", "#555555"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.suggester, nil)
			assert.Equal(t, tt.want, svc.ForEvent(ctx, "Festa"))
		})
	}
}

func TestService_ReturnsCopies(t *testing.T) {
	got := NewService(nil, nil).ForEvent(context.Background(), "x")
	got[0] = "#ABCDEF"
	assert.Equal(t, "#FF0000", Unconfigured[0])
}

func TestGemini_Suggest(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"colors\":[\"#FF0000\",\"#00FF00\"]}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("secret", "", srv.URL, time.Second)
	colors, err := g.Suggest(context.Background(), "Neon Night")
	require.NoError(t, err)

	assert.Equal(t, []string{"#FF0000", "#00FF00"}, colors)
	assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
	assert.Equal(t, "secret", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.True(t, strings.Contains(gotBody.Contents[0].Parts[0].Text, "Neon Night"))
}

func TestGemini_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"bad inner json", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"nope"}]}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGemini("k", "m", srv.URL, time.Second).Suggest(context.Background(), "x")
			require.Error(t, err)
		})
	}
}
