// Package backend is the HTTP client for the storefront's remote REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("backend response too large")

// APIError is a failed backend call. Message is the server's own message when
// it sent one, otherwise a message describing the operation that failed.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	BreakerFailure int
	BreakerTimeout time.Duration
}

// Client talks to the backend REST API. All calls share one circuit breaker;
// client errors (4xx) do not count against it.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	maxBody int64
	logger  zerolog.Logger
}

// New creates a backend client.
func New(cfg Config, logger zerolog.Logger) *Client {
	return newClient(cfg, otelhttp.NewTransport(http.DefaultTransport), logger)
}

func newClient(cfg Config, transport http.RoundTripper, logger zerolog.Logger) *Client {
	log := logger.With().Str("component", "backend").Logger()
	threshold := uint32(max(cfg.BreakerFailure, 1))

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "backend",
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: countsAsSuccess,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("circuit breaker state changed")
			},
		}),
		maxBody: maxResponseBytes,
		logger:  log,
	}
}

func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError
}

type call struct {
	method      string
	path        string
	token       string
	body        []byte
	contentType string
	// fallback is the message used when the server does not send one.
	fallback string
}

func (c *Client) send(ctx context.Context, cl call) ([]byte, error) {
	data, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, cl)
	})
	if err == nil {
		return data, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.logger.Debug().
			Str("method", cl.method).
			Str("path", cl.path).
			Int("status", apiErr.Status).
			Str("message", apiErr.Message).
			Msg("backend rejected request")
		return nil, apiErr
	}

	status := http.StatusBadGateway
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		status = http.StatusServiceUnavailable
	}
	c.logger.Warn().Err(err).Str("method", cl.method).Str("path", cl.path).Msg("backend request failed")
	return nil, &APIError{Status: status, Message: cl.fallback, Err: err}
}

func (c *Client) roundTrip(ctx context.Context, cl call) ([]byte, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes from %s", ErrResponseTooLarge, c.maxBody, cl.path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: serverMessage(data, cl.fallback)}
	}
	return data, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, in any, fallback string) ([]byte, error) {
	cl := call{method: method, path: path, token: token, fallback: fallback}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		cl.body = payload
		cl.contentType = "application/json"
	}
	return c.send(ctx, cl)
}

func serverMessage(data []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil && strings.TrimSpace(body.Message) != "" {
		return body.Message
	}
	return fallback
}
