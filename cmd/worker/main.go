// Package main runs the background jobs: the retention sweep and share-code cleanup.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/color-vibe/backend/config"
	"github.com/color-vibe/backend/internal/app"
	"github.com/color-vibe/backend/internal/lifecycle"
	"github.com/color-vibe/backend/internal/worker"
	"github.com/color-vibe/backend/pkg/retry"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Store.Backend == config.BackendMemory {
		logger.Fatal("worker needs a shared store; set STORE_BACKEND to postgres or redis")
	}

	ctx := context.Background()
	stack, err := app.OpenStore(ctx, cfg, retry.Policy{}, logger)
	if err != nil {
		logger.Fatal("event store", zap.Error(err))
	}
	defer stack.Close()

	sharer := app.Share(ctx, cfg, logger)
	jobs := app.ShareCleanup(stack, sharer, logger)

	mgr := lifecycle.NewManager(stack.Store, logger)
	mgr.OnRemoved(func(ctx context.Context, ids []string) {
		for _, id := range ids {
			sharer.Forget(ctx, id)
		}
	})
	if _, err := mgr.Cleanup(ctx); err != nil {
		logger.Warn("initial cleanup", zap.Error(err))
	}
	stop, err := mgr.Schedule(cfg.Lifecycle.CleanupSchedule)
	if err != nil {
		logger.Fatal("schedule cleanup", zap.String("spec", cfg.Lifecycle.CleanupSchedule), zap.Error(err))
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	if jobs != nil && cfg.AWS.QRBucket != "" {
		cleaner := worker.NewQRCleaner(sharer, jobs, logger)
		go func() {
			cleaner.Run(workerCtx)
			close(done)
		}()
	} else {
		close(done)
	}
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	cancel()
	<-done
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
