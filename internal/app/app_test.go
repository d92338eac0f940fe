package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/config"
	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/palette"
	"github.com/color-vibe/backend/internal/share"
	"github.com/color-vibe/backend/pkg/retry"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Backend: config.BackendMemory, Broadcast: true},
		Links: config.LinksConfig{PublicBaseURL: "https://party.example/"},
	}
}

func TestOpenStore_MemorySignalsChanges(t *testing.T) {
	ctx := context.Background()
	st, err := OpenStore(ctx, memoryConfig(), retry.Policy{Attempts: 1}, zap.NewNop())
	require.NoError(t, err)
	defer st.Close()

	signals := 0
	unsub := st.Changes.Subscribe(func() { signals++ })
	defer unsub()

	e, err := st.Store.JoinOrCreate(ctx, "abc", "Evento abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", e.ID)
	assert.Equal(t, 1, signals)
}

func TestIdentity_DemoFallback(t *testing.T) {
	svc := Identity(context.Background(), config.AuthConfig{}, retry.Policy{Attempts: 1}, zap.NewNop())
	p, err := svc.Login(context.Background(), models.ProviderGoogle, "", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "admin_google@test.com", p.ID)
}

func TestShare_WithoutBucket(t *testing.T) {
	svc := Share(context.Background(), memoryConfig(), zap.NewNop())
	_, err := svc.Publish(context.Background(), "abc")
	assert.ErrorIs(t, err, share.ErrNoUploader)
	assert.Contains(t, svc.URL("abc"), "eventId=abc")
}

func TestPalettes_Unconfigured(t *testing.T) {
	svc := Palettes(config.PaletteConfig{}, zap.NewNop())
	assert.Equal(t, palette.Unconfigured, svc.ForEvent(context.Background(), "Festa"))
}
