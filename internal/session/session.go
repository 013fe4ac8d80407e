// Package session holds the per-shopper state shared by every view: cart,
// wishlist, credential, checkout and notification inbox.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/currency"
	"storefront/internal/wishlist"
)

// Session is one shopper's state container. Views read and mutate the
// aggregates directly; each aggregate is safe for concurrent use.
type Session struct {
	ID       string
	Cart     *cart.Cart
	Wishlist *wishlist.Wishlist
	Auth     *auth.Holder
	Checkout *checkout.Orchestrator
	Inbox    *Inbox

	resolver  *currency.Resolver
	persister *cart.Persister

	flagMu sync.Mutex
	flags  map[string]struct{}

	filterMu   sync.Mutex
	lastFilter *catalog.FilterSpec

	lastSeen atomic.Int64
	closed   atomic.Bool
}

// Locale returns the process-wide resolved locale, or home until resolved.
func (s *Session) Locale() currency.Locale {
	return s.resolver.Current()
}

// LocaleResolved reports whether the geolocation lookup has finished.
func (s *Session) LocaleResolved() bool {
	return s.resolver.Resolved()
}

// NextFilter applies the page-reset rule against the previous browse on
// this session and remembers spec for the next call.
func (s *Session) NextFilter(spec catalog.FilterSpec) catalog.FilterSpec {
	s.filterMu.Lock()
	defer s.filterMu.Unlock()
	if s.lastFilter != nil {
		spec = spec.Next(*s.lastFilter)
	}
	if spec.Page < 1 {
		spec.Page = 1
	}
	s.lastFilter = &spec
	return spec
}

// SetFlag records a read-once flag.
func (s *Session) SetFlag(name string) {
	s.flagMu.Lock()
	defer s.flagMu.Unlock()
	s.flags[name] = struct{}{}
}

// TakeFlag reports whether name was set and erases it.
func (s *Session) TakeFlag(name string) bool {
	s.flagMu.Lock()
	defer s.flagMu.Unlock()
	_, ok := s.flags[name]
	delete(s.flags, name)
	return ok
}

// LastSeen is the time of the most recent request on the session.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// close detaches the session from its store and discards pending checkout
// completions. The stored cart is kept.
func (s *Session) close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.Checkout.Close()
	if s.persister != nil {
		s.persister.Close()
	}
}

type ctxKey struct{}

// NewContext returns ctx carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session bound to ctx.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
