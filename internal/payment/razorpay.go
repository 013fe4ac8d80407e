package payment

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RazorpayConfig configures the Razorpay checkout adapter.
type RazorpayConfig struct {
	KeyID      string
	ScriptURL  string
	StoreName  string
	ThemeColor string
	Timeout    time.Duration
}

type razorpayGateway struct {
	cfg    RazorpayConfig
	client *http.Client
	logger zerolog.Logger

	mu     sync.Mutex
	loaded bool
}

// NewRazorpay creates a Gateway for Razorpay's hosted checkout.
func NewRazorpay(cfg RazorpayConfig, logger zerolog.Logger) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &razorpayGateway{
		cfg: cfg,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.With().Str("component", "razorpay-gateway").Logger(),
	}
}

// Load fetches the checkout script once. Concurrent callers wait for the
// same attempt.
func (g *razorpayGateway) Load(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.ScriptURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build script request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn().Err(err).Str("script_url", g.cfg.ScriptURL).Msg("failed to load checkout script")
		return fmt.Errorf("failed to load checkout script: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn().Int("status", resp.StatusCode).Str("script_url", g.cfg.ScriptURL).Msg("checkout script unavailable")
		return fmt.Errorf("checkout script returned status %d", resp.StatusCode)
	}

	g.loaded = true
	g.logger.Info().Str("script_url", g.cfg.ScriptURL).Msg("checkout script loaded")
	return nil
}

func (g *razorpayGateway) Open(ctx context.Context, req OpenRequest) (Widget, error) {
	g.mu.Lock()
	loaded := g.loaded
	g.mu.Unlock()
	if !loaded {
		return Widget{}, ErrNotLoaded
	}

	if req.GatewayOrderID == "" {
		return Widget{}, fmt.Errorf("gateway order id is required")
	}

	g.logger.Debug().
		Str("gateway_order_id", req.GatewayOrderID).
		Int64("amount", req.Amount).
		Str("currency", req.Currency).
		Msg("opening checkout widget")

	return Widget{
		Key:         g.cfg.KeyID,
		ScriptURL:   g.cfg.ScriptURL,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Name:        g.cfg.StoreName,
		Description: req.Description,
		OrderID:     req.GatewayOrderID,
		Prefill:     req.Customer,
		Theme:       Theme{Color: g.cfg.ThemeColor},
	}, nil
}
