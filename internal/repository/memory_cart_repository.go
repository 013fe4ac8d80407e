package repository

import (
	"context"
	"slices"
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

type memoryCartRepository struct {
	mu     sync.RWMutex
	carts  map[string][]model.CartLine
	logger zerolog.Logger
}

// NewMemoryCartRepository creates a process-local cart store. Carts are lost on restart.
func NewMemoryCartRepository(logger zerolog.Logger) CartRepository {
	return &memoryCartRepository{
		carts:  make(map[string][]model.CartLine),
		logger: logger.With().Str("repository", "cart_memory").Logger(),
	}
}

func (r *memoryCartRepository) Load(_ context.Context, sessionID string) ([]model.CartLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.carts[sessionID]), nil
}

func (r *memoryCartRepository) Save(_ context.Context, sessionID string, lines []model.CartLine) error {
	r.mu.Lock()
	r.carts[sessionID] = slices.Clone(lines)
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", sessionID).Int("lines", len(lines)).Msg("cart saved")
	return nil
}

func (r *memoryCartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	delete(r.carts, sessionID)
	r.mu.Unlock()
	return nil
}
