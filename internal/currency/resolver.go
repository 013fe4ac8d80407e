package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Lookup resolves the caller's two-letter country code.
type Lookup interface {
	Country(ctx context.Context) (string, error)
}

type httpLookup struct {
	client *http.Client
	url    string
}

// NewHTTPLookup returns a Lookup backed by an IP geolocation endpoint
// answering {"country":"XX"}.
func NewHTTPLookup(url string, timeout time.Duration) Lookup {
	return &httpLookup{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		url: url,
	}
}

func (l *httpLookup) Country(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geolocation request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation lookup returned status %d", resp.StatusCode)
	}

	var body struct {
		Country string `json:"country"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geolocation response: %w", err)
	}
	return body.Country, nil
}

// Resolver performs the geolocation lookup once per process and shares the
// result with every caller. Any failure resolves to the home region.
type Resolver struct {
	lookup   Lookup
	settings Settings
	timeout  time.Duration
	logger   zerolog.Logger

	once sync.Once
	done chan struct{}

	mu       sync.RWMutex
	locale   Locale
	resolved bool
	subs     map[int]func(Locale)
	nextSub  int
}

// NewResolver creates a resolver. The lookup starts on the first Resolve or Start call.
func NewResolver(lookup Lookup, settings Settings, timeout time.Duration, logger zerolog.Logger) *Resolver {
	return &Resolver{
		lookup:   lookup,
		settings: settings,
		timeout:  timeout,
		logger:   logger.With().Str("component", "currency-resolver").Logger(),
		done:     make(chan struct{}),
		locale:   HomeLocale(settings),
		subs:     make(map[int]func(Locale)),
	}
}

// Start kicks off the lookup in the background without waiting for it.
func (r *Resolver) Start() {
	r.once.Do(func() { go r.run() })
}

// Resolve waits for the lookup and returns the resolved locale. If ctx ends
// first the current value (home until resolved) is returned.
func (r *Resolver) Resolve(ctx context.Context) Locale {
	r.Start()
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	return r.Current()
}

// Current returns the locale without waiting.
func (r *Resolver) Current() Locale {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locale
}

// Resolved reports whether the lookup has finished.
func (r *Resolver) Resolved() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolved
}

// Subscribe registers fn to be called once the locale is resolved. If it
// already is, fn is called immediately. The returned func unsubscribes.
func (r *Resolver) Subscribe(fn func(Locale)) func() {
	r.mu.Lock()
	if r.resolved {
		loc := r.locale
		r.mu.Unlock()
		fn(loc)
		return func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Resolver) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	loc := HomeLocale(r.settings)
	code, err := r.lookup.Country(ctx)
	switch {
	case err != nil:
		r.logger.Warn().Err(err).Msg("geolocation lookup failed, using home region")
	case !validCountry(code):
		r.logger.Warn().Str("country", code).Msg("malformed country code, using home region")
	default:
		loc = NewLocale(code, r.settings)
	}

	r.mu.Lock()
	r.locale = loc
	r.resolved = true
	subs := make([]func(Locale), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.subs = nil
	r.mu.Unlock()
	close(r.done)

	r.logger.Info().
		Str("country", loc.Country).
		Bool("home", loc.Home()).
		Msg("locale resolved")

	for _, fn := range subs {
		fn(loc)
	}
}

func validCountry(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
