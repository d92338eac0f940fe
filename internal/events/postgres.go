package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/color-vibe/backend/internal/models"
)

// PostgresBackend stores the collection as one JSONB row in kv_store.
type PostgresBackend struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresBackend creates a Postgres substrate keyed by StorageKey.
func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool, key: StorageKey}
}

// Load reads the collection; a missing row is an empty collection.
func (p *PostgresBackend) Load(ctx context.Context) ([]models.Event, error) {
	const q = `SELECT value FROM kv_store WHERE key = $1`
	var raw []byte
	err := p.pool.QueryRow(ctx, q, p.key).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Event{}, nil
		}
		return nil, fmt.Errorf("load events: %w", err)
	}
	return decodeEvents(raw)
}

// Save upserts the whole collection in a single statement.
func (p *PostgresBackend) Save(ctx context.Context, list []models.Event) error {
	body, err := encodeEvents(list)
	if err != nil {
		return err
	}
	const q = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := p.pool.Exec(ctx, q, p.key, string(body)); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}
