package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/color-vibe/backend/pkg/retry"
)

// MaxConns caps the pool. The store rewrites a single row, so a small pool is enough.
const MaxConns = 8

// NewPostgresPool creates a pgx connection pool, pinging until the database answers or the policy runs out.
func NewPostgresPool(ctx context.Context, dsn string, policy retry.Policy, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	if config.MaxConns > MaxConns {
		config.MaxConns = MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			logger.Debug("postgres not ready", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("PostgreSQL connection pool established", zap.Int32("max_conns", config.MaxConns))
	return pool, nil
}
