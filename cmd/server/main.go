// Package main runs the light-party HTTP server with WebSocket screens and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/color-vibe/backend/config"
	"github.com/color-vibe/backend/internal/app"
	"github.com/color-vibe/backend/internal/auth"
	"github.com/color-vibe/backend/internal/events"
	"github.com/color-vibe/backend/internal/lifecycle"
	"github.com/color-vibe/backend/internal/metrics"
	"github.com/color-vibe/backend/internal/middleware"
	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/internal/realtime"
	"github.com/color-vibe/backend/internal/session"
	"github.com/color-vibe/backend/pkg/response"
	"github.com/color-vibe/backend/pkg/retry"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	stack, err := app.OpenStore(ctx, cfg, retry.Policy{}, logger)
	if err != nil {
		logger.Fatal("event store", zap.Error(err))
	}
	defer stack.Close()

	palettes := app.Palettes(cfg.Palette, logger)
	sharer := app.Share(ctx, cfg, logger)
	app.ShareCleanup(stack, sharer, logger)

	// Retention sweep once at startup; cmd/worker keeps it going on a schedule.
	lifecycleMgr := lifecycle.NewManager(stack.Store, logger)
	lifecycleMgr.OnRemoved(func(ctx context.Context, ids []string) {
		for _, id := range ids {
			sharer.Forget(ctx, id)
		}
	})
	if _, err := lifecycleMgr.Cleanup(ctx); err != nil {
		logger.Warn("startup cleanup", zap.Error(err))
	}
	identitySvc := app.Identity(ctx, cfg.Auth, retry.Policy{Attempts: 3, Interval: time.Second}, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(identitySvc, jwtService, logger)

	eventHandler := events.NewHandler(stack.Store, sharer, logger)
	registry := session.NewRegistry(stack.Store, palettes, logger)
	consoleHandler := session.NewHandler(stack.Store, registry, sharer, logger)

	hub := realtime.NewHub(logger)
	hub.SetAudienceChangeHandler(func(eventID string, count int) {
		hub.BroadcastToEvent(eventID, realtime.EventAudience, gin.H{"event_id": eventID, "count": count})
	})

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID, claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(metrics.Middleware())

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth (public)
	router.POST("/auth/login", authHandler.Login)

	// Attendee surface (public)
	router.GET("/events/discover", eventHandler.Discover)
	router.POST("/events/join", eventHandler.Join)
	router.GET("/join", eventHandler.JoinLink)
	router.GET("/events/:id", eventHandler.GetByID)
	router.GET("/events/:id/qr.png", eventHandler.QRCode)
	router.GET("/events/:id/audience", realtime.AudienceCount(hub))

	// Admin console (JWT + admin role)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/events", consoleHandler.ListEvents)
		admin.POST("/events", consoleHandler.CreateEvent)
		admin.DELETE("/events/:id", consoleHandler.DeleteEvent)
		admin.POST("/events/:id/share", consoleHandler.ShareEvent)

		admin.GET("/session", consoleHandler.Get)
		admin.DELETE("/session", consoleHandler.Reset)
		admin.POST("/session/select", consoleHandler.Select)
		admin.PATCH("/session/preview", consoleHandler.Preview)
		admin.POST("/session/preview/enter", consoleHandler.EnterPreview)
		admin.POST("/session/preview/exit", consoleHandler.ExitPreview)
		admin.POST("/session/publish", consoleHandler.Publish)
		admin.POST("/session/palette", consoleHandler.Palette)
	}

	// WebSocket screens (token optional, in query)
	router.GET("/ws", realtime.ServeWs(hub, stack.Store, session.Detach(stack.Changes), logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
