package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/color-vibe/backend/internal/models"
)

// StorageKey is the single keyed record holding the whole event collection.
const StorageKey = "light_party_events"

// Backend is the durable substrate. The unit of persistence is the full event list:
// Save atomically replaces whatever Load would have returned.
type Backend interface {
	Load(ctx context.Context) ([]models.Event, error)
	Save(ctx context.Context, events []models.Event) error
}

// decodeEvents parses a persisted collection. Missing or null values are an empty collection.
func decodeEvents(raw []byte) ([]models.Event, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []models.Event{}, nil
	}
	var list []models.Event
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StorageKey, err)
	}
	if list == nil {
		list = []models.Event{}
	}
	return list, nil
}

func encodeEvents(list []models.Event) ([]byte, error) {
	if list == nil {
		list = []models.Event{}
	}
	body, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", StorageKey, err)
	}
	return body, nil
}

// MemoryBackend keeps the serialized collection in process memory.
// It round-trips through JSON so it behaves like the durable backends.
type MemoryBackend struct {
	mu  sync.Mutex
	raw []byte
}

// NewMemoryBackend creates an empty in-memory substrate.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Load returns the stored collection.
func (m *MemoryBackend) Load(_ context.Context) ([]models.Event, error) {
	m.mu.Lock()
	raw := m.raw
	m.mu.Unlock()
	return decodeEvents(raw)
}

// Save replaces the stored collection.
func (m *MemoryBackend) Save(_ context.Context, list []models.Event) error {
	body, err := encodeEvents(list)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.raw = body
	m.mu.Unlock()
	return nil
}

// SetRaw overwrites the serialized value, as another writer sharing the substrate would.
func (m *MemoryBackend) SetRaw(raw []byte) {
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
}
