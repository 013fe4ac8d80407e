package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/currency"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLookup string

func (l staticLookup) Country(context.Context) (string, error) {
	return string(l), nil
}

// newTestSession builds a live session in the home region.
func newTestSession(t *testing.T, orders checkout.OrderAPI) *session.Session {
	t.Helper()
	return newGatewaySession(t, orders, nil)
}

func newGatewaySession(t *testing.T, orders checkout.OrderAPI, gateway payment.Gateway) *session.Session {
	t.Helper()
	resolver := currency.NewResolver(staticLookup("IN"), currency.DefaultSettings(), time.Second, zerolog.Nop())
	m := session.NewManager(session.Deps{
		Store:          repository.NewMemoryCartRepository(zerolog.Nop()),
		Resolver:       resolver,
		Orders:         orders,
		Gateway:        gateway,
		DefaultCountry: "India",
	}, time.Hour, zerolog.Nop())
	t.Cleanup(m.Close)

	s, _, err := m.Acquire(context.Background(), "")
	require.NoError(t, err)
	return s
}

func signIn(t *testing.T, s *session.Session, user model.User) {
	t.Helper()
	require.NoError(t, s.Auth.Set("token-abc", user))
}

// serve routes one request through a chi router so URL params resolve.
// A nil session sends the request without one.
func serve(s *session.Session, method, pattern, target string, body io.Reader, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)

	req := httptest.NewRequest(method, target, body)
	if s != nil {
		req = req.WithContext(session.NewContext(req.Context(), s))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func serveJSON(s *session.Session, method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	return serve(s, method, pattern, target, strings.NewReader(body), h)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     string
		wantMessage  string
		wantRedirect string
	}{
		{
			name:         "login required redirects",
			err:          model.ErrLoginRequired,
			wantStatus:   http.StatusUnauthorized,
			wantCode:     model.ErrCodeLoginRequired,
			wantMessage:  "Please login again",
			wantRedirect: checkout.LoginPath,
		},
		{
			name:       "product not found",
			err:        model.ErrProductNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeProductNotFound,
		},
		{
			name:       "wrapped order not found",
			err:        fmt.Errorf("lookup: %w", model.ErrOrderNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeOrderNotFound,
		},
		{
			name:       "checkout in progress",
			err:        model.ErrCheckoutInProgress,
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeCheckoutInProgress,
		},
		{
			name:       "order not cancellable",
			err:        model.ErrOrderNotCancellable,
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeOrderNotCancellable,
		},
		{
			name:       "order not returnable",
			err:        model.ErrOrderNotReturnable,
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeOrderNotReturnable,
		},
		{
			name:       "payment failed",
			err:        model.ErrPaymentFailed,
			wantStatus: http.StatusPaymentRequired,
			wantCode:   model.ErrCodePaymentFailed,
		},
		{
			name:       "payment details missing",
			err:        model.ErrPaymentDetailsMissing,
			wantStatus: http.StatusBadGateway,
			wantCode:   model.ErrCodePaymentDetailsMissing,
		},
		{
			name:       "gateway unavailable",
			err:        model.ErrGatewayUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   model.ErrCodeGatewayUnavailable,
		},
		{
			name:       "validation error",
			err:        model.ErrEmptyCart,
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeEmptyCart,
		},
		{
			name:        "backend error keeps status and message",
			err:         &backend.APIError{Status: http.StatusUnprocessableEntity, Message: "Stock exhausted"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    model.ErrCodeUpstream,
			wantMessage: "Stock exhausted",
		},
		{
			name:        "backend transport error",
			err:         &backend.APIError{Message: "Failed to fetch products"},
			wantStatus:  http.StatusBadGateway,
			wantCode:    model.ErrCodeUpstream,
			wantMessage: "Failed to fetch products",
		},
		{
			name:         "backend unauthorized redirects",
			err:          &backend.APIError{Status: http.StatusUnauthorized, Message: "jwt expired"},
			wantStatus:   http.StatusUnauthorized,
			wantCode:     model.ErrCodeUpstream,
			wantRedirect: checkout.LoginPath,
		},
		{
			name:       "malformed token",
			err:        auth.ErrInvalidToken,
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeInvalidToken,
		},
		{
			name:       "closed session",
			err:        checkout.ErrSessionClosed,
			wantStatus: http.StatusGone,
			wantCode:   model.ErrCodeInternalError,
		},
		{
			name:        "unknown error hides detail",
			err:         errors.New("connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    model.ErrCodeInternalError,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := errorResponse(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Error)
			assert.Equal(t, tt.wantRedirect, resp.Redirect)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Message)
			}
		})
	}
}

func TestWriteError_CorrelationID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)

	writeError(rec, req, model.ErrEmptyCart, zerolog.Nop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decodeError(t, rec)
	assert.Equal(t, model.ErrCodeEmptyCart, resp.Error)
	assert.Equal(t, "Your cart is empty", resp.Message)
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":3}`))
		var dst updateQuantityRequest

		require.NoError(t, decodeJSON(httptest.NewRecorder(), req, &dst))
		assert.Equal(t, 3, dst.Quantity)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":`))
		var dst updateQuantityRequest

		err := decodeJSON(httptest.NewRecorder(), req, &dst)

		var domainErr *model.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, model.ErrCodeInvalidJSON, domainErr.Code)
	})

	t.Run("oversized body", func(t *testing.T) {
		big := `{"productId":"` + strings.Repeat("x", maxJSONBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var dst addItemRequest

		assert.Error(t, decodeJSON(httptest.NewRecorder(), req, &dst))
	})
}

func TestHandlers_NoSession(t *testing.T) {
	h := NewCartHandler(nil, "", zerolog.Nop())

	rec := serve(nil, http.MethodGet, "/api/cart", "/api/cart", nil, h.Get)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBearer(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := bearer(s)
	assert.ErrorIs(t, err, model.ErrLoginRequired)

	signIn(t, s, model.User{ID: "u1"})
	token, err := bearer(s)
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
}
