package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/color-vibe/backend/internal/palette"
)

// Registry holds one Controller per admin (thread-safe).
type Registry struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
	store       LiveStore
	palettes    *palette.Service
	logger      *zap.Logger
}

// NewRegistry creates an empty controller registry.
func NewRegistry(store LiveStore, palettes *palette.Service, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		controllers: make(map[string]*Controller),
		store:       store,
		palettes:    palettes,
		logger:      logger,
	}
}

// Get returns the controller for adminID, creating an idle one on first use.
func (reg *Registry) Get(adminID string) *Controller {
	reg.mu.RLock()
	c := reg.controllers[adminID]
	reg.mu.RUnlock()
	if c != nil {
		return c
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if c := reg.controllers[adminID]; c != nil {
		return c
	}
	c = NewController(adminID, reg.store, reg.palettes, reg.logger)
	reg.controllers[adminID] = c
	return c
}

// Drop discards adminID's staged state (logout).
func (reg *Registry) Drop(adminID string) {
	reg.mu.Lock()
	delete(reg.controllers, adminID)
	reg.mu.Unlock()
}

// Deselect drops eventID from every controller that had it selected.
func (reg *Registry) Deselect(eventID string) {
	reg.mu.RLock()
	list := make([]*Controller, 0, len(reg.controllers))
	for _, c := range reg.controllers {
		list = append(list, c)
	}
	reg.mu.RUnlock()
	for _, c := range list {
		c.Deselect(eventID)
	}
}
