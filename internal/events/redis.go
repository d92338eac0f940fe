package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/color-vibe/backend/internal/models"
)

// RedisBackend stores the collection as a JSON string under StorageKey.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend creates a Redis substrate.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

// Load reads the collection; a missing key is an empty collection.
func (r *RedisBackend) Load(ctx context.Context) ([]models.Event, error) {
	raw, err := r.client.Get(ctx, StorageKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Event{}, nil
		}
		return nil, fmt.Errorf("load events: %w", err)
	}
	return decodeEvents(raw)
}

// Save replaces the whole collection.
func (r *RedisBackend) Save(ctx context.Context, list []models.Event) error {
	body, err := encodeEvents(list)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, StorageKey, body, 0).Err(); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	return nil
}
