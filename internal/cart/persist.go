package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Store keeps a session's cart lines across restarts.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]model.CartLine, error)
	Save(ctx context.Context, sessionID string, lines []model.CartLine) error
	Delete(ctx context.Context, sessionID string) error
}

const persistTimeout = 5 * time.Second

// Persister mirrors cart mutations into a Store. Events older than the last
// one written are dropped, so a slow save never overwrites newer state.
type Persister struct {
	store     Store
	sessionID string
	logger    zerolog.Logger

	mu      sync.Mutex
	written uint64
	unbind  func()
}

// Bind loads any stored lines into c and then mirrors every mutation of c
// into store. Call Close to stop mirroring.
func Bind(ctx context.Context, c *Cart, store Store, sessionID string, logger zerolog.Logger) (*Persister, error) {
	p := &Persister{
		store:     store,
		sessionID: sessionID,
		logger:    logger.With().Str("component", "cart-persister").Str("session_id", sessionID).Logger(),
	}

	lines, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) > 0 {
		c.Restore(lines)
		p.logger.Debug().Int("lines", len(lines)).Msg("cart restored")
	}

	p.written = c.Version()
	p.unbind = c.Subscribe(p.handle)
	return p, nil
}

// Close stops mirroring.
func (p *Persister) Close() {
	p.mu.Lock()
	unbind := p.unbind
	p.unbind = nil
	p.mu.Unlock()
	if unbind != nil {
		unbind()
	}
}

func (p *Persister) handle(ev Event) {
	if ev.Kind == Restored {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ev.Version <= p.written {
		p.logger.Debug().
			Uint64("version", ev.Version).
			Uint64("written", p.written).
			Msg("dropping stale cart snapshot")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if ev.Kind == Cleared || len(ev.Lines) == 0 {
		err = p.store.Delete(ctx, p.sessionID)
	} else {
		err = p.store.Save(ctx, p.sessionID, ev.Lines)
	}
	if err != nil {
		p.logger.Error().Err(err).Str("event", string(ev.Kind)).Msg("failed to persist cart")
		return
	}
	p.written = ev.Version
}
