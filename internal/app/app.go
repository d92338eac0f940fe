// Package app wires the event store and its optional integrations from config.
// cmd/server and cmd/worker share it so both processes see the same collection.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/config"
	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/identity"
	"github.com/color-vibe/backend/internal/notify"
	"github.com/color-vibe/backend/internal/palette"
	"github.com/color-vibe/backend/internal/share"
	"github.com/color-vibe/backend/pkg/database"
	"github.com/color-vibe/backend/pkg/queue"
	"github.com/color-vibe/backend/pkg/redis"
	"github.com/color-vibe/backend/pkg/retry"
	"github.com/color-vibe/backend/pkg/storage"
)

// Stack is the opened store with its change signal. Redis is nil when not connected.
type Stack struct {
	Store   *events.Store
	Changes *notify.Notifier
	Redis   *redis.Client
	closers []func()
}

// Close releases connections in reverse open order.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStore connects the configured backend and, when enabled, the Redis change bridge.
func OpenStore(ctx context.Context, cfg *config.Config, policy retry.Policy, logger *zap.Logger) (*Stack, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := &Stack{Changes: notify.New(nil, logger)}

	var rdb *redis.Client
	needRedis := cfg.Store.Backend == config.BackendRedis || cfg.Store.Broadcast
	if needRedis && cfg.Store.Backend != config.BackendMemory {
		c, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, policy, logger)
		switch {
		case err == nil:
			rdb = c
			st.Redis = c
			st.closers = append(st.closers, func() { _ = c.Close() })
		case cfg.Store.Backend == config.BackendRedis:
			return nil, err
		default:
			logger.Warn("redis unavailable, change signals stay local", zap.Error(err))
		}
	}

	var backend events.Backend
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), policy, logger)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
		if err := database.Migrate(ctx, pool, logger); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		backend = events.NewPostgresBackend(pool)
	case config.BackendRedis:
		backend = events.NewRedisBackend(rdb.Client)
	default:
		backend = events.NewMemoryBackend()
	}

	if rdb != nil && cfg.Store.Broadcast {
		bridge := notify.NewRedisBridge(rdb.Client, logger)
		st.Changes.SetPublisher(bridge)
		stop, err := bridge.Listen(ctx, st.Changes)
		if err != nil {
			logger.Warn("change bridge disabled", zap.Error(err))
			st.Changes.SetPublisher(nil)
		} else {
			// Registered after the client, so it runs before the client closes.
			st.closers = append(st.closers, stop)
		}
	}

	st.Store = events.NewStore(backend, st.Changes, logger)
	logger.Info("event store ready", zap.String("backend", cfg.Store.Backend))
	return st, nil
}

// Identity builds the login service. Providers without a client id fall back to demo accounts.
func Identity(ctx context.Context, cfg config.AuthConfig, policy retry.Policy, logger *zap.Logger) *identity.Service {
	var google, facebook identity.Verifier
	if cfg.GoogleClientID != "" {
		var g *identity.Google
		err := retry.Do(ctx, policy, func(ctx context.Context) error {
			var err error
			g, err = identity.NewGoogle(ctx, cfg.GoogleIssuer, cfg.GoogleClientID)
			return err
		})
		if err != nil {
			logger.Warn("google sign-in unavailable, using demo account", zap.Error(err))
		} else {
			google = g
		}
	}
	if cfg.FacebookAppID != "" {
		facebook = identity.NewFacebook(cfg.FacebookGraph)
	}
	return identity.NewService(google, facebook, logger)
}

// Share builds the share service, with S3 uploads when a bucket is configured.
func Share(ctx context.Context, cfg *config.Config, logger *zap.Logger) *share.Service {
	var uploader share.Uploader
	if cfg.AWS.QRBucket != "" {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			QRBucket:             cfg.AWS.QRBucket,
			PublicRead:           cfg.AWS.QRPublicRead,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			uploader = s3
		}
	}
	return share.NewService(cfg.Links.PublicBaseURL, uploader, logger)
}

// ShareCleanup routes share-code deletions through the Redis job queue when
// Redis is connected and returns the queue; nil otherwise.
func ShareCleanup(st *Stack, sharer *share.Service, logger *zap.Logger) *queue.Queue {
	if st.Redis == nil {
		return nil
	}
	q := queue.NewQueue(st.Redis.Client, logger)
	sharer.SetDeferrer(q)
	return q
}

// Palettes builds the palette service; nil suggester when no API key is set.
func Palettes(cfg config.PaletteConfig, logger *zap.Logger) *palette.Service {
	var suggester palette.Suggester
	if cfg.APIKey != "" {
		suggester = palette.NewGemini(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	}
	return palette.NewService(suggester, logger)
}
