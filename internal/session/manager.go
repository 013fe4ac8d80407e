package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/currency"
	"storefront/internal/events"
	"storefront/internal/payment"
	"storefront/internal/wishlist"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const restoreTimeout = 5 * time.Second

// Deps are the process-wide collaborators every session shares.
type Deps struct {
	Store          cart.Store
	Resolver       *currency.Resolver
	Orders         checkout.OrderAPI
	Gateway        payment.Gateway
	Events         events.Publisher
	DefaultCountry string
}

// Manager owns the live sessions and evicts idle ones.
type Manager struct {
	deps   Deps
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. Sessions idle for longer than ttl
// are dropped by Sweep.
func NewManager(deps Deps, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		deps:     deps,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With().Str("component", "session-manager").Logger(),
		sessions: make(map[string]*Session),
	}
}

// Acquire returns the session for id, creating it when id is empty,
// malformed or not live. A recreated session restores its stored cart.
// created reports whether a new session object was built.
//
// The stored cart is loaded without holding the manager lock. When two
// requests rebuild the same id concurrently the first one inserted wins and
// the other's session is discarded.
func (m *Manager) Acquire(ctx context.Context, id string) (s *Session, created bool, err error) {
	if _, parseErr := uuid.Parse(id); parseErr != nil {
		id = uuid.NewString()
	}

	if s, ok := m.live(id); ok {
		return s, false, nil
	}

	built, err := m.build(ctx, id)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		s.touch(m.now())
		m.mu.Unlock()
		built.close()
		m.logger.Debug().Str("session_id", id).Msg("session rebuilt concurrently, keeping the first")
		return s, false, nil
	}
	m.sessions[id] = built
	live := len(m.sessions)
	m.mu.Unlock()

	m.logger.Debug().Str("session_id", id).Int("live", live).Msg("session created")
	return built, true, nil
}

func (m *Manager) live(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.touch(m.now())
	}
	return s, ok
}

func (m *Manager) build(ctx context.Context, id string) (*Session, error) {
	s := &Session{
		ID:       id,
		Cart:     cart.New(),
		Wishlist: wishlist.New(),
		Auth:     auth.NewHolder(),
		Inbox:    &Inbox{},
		resolver: m.deps.Resolver,
		flags:    make(map[string]struct{}),
	}
	s.touch(m.now())

	if m.deps.Store != nil {
		loadCtx, cancel := context.WithTimeout(ctx, restoreTimeout)
		defer cancel()
		p, err := cart.Bind(loadCtx, s.Cart, m.deps.Store, id, m.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
		}
		s.persister = p
	}

	s.Checkout = checkout.New(checkout.Config{
		SessionID:      id,
		DefaultCountry: m.deps.DefaultCountry,
		Cart:           s.Cart,
		Auth:           s.Auth,
		Locale:         s.Locale,
		Orders:         m.deps.Orders,
		Gateway:        m.deps.Gateway,
		Events:         m.deps.Events,
		Flags:          s,
	}, m.logger)

	return s, nil
}

// Lookup returns a live session without creating one.
func (m *Manager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were dropped.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		m.logger.Info().Int("swept", len(idle)).Msg("idle sessions dropped")
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Close drops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
	m.logger.Info().Int("closed", len(all)).Msg("sessions closed")
}
