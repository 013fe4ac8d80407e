package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{name: "caller id is reused", incoming: "req-123", keep: true},
		{name: "missing id is generated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = CorrelationIDFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.incoming != "" {
				req.Header.Set(CorrelationIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
			if tt.keep {
				assert.Equal(t, tt.incoming, seen)
			}
		})
	}
}

type stubBinder struct {
	session *session.Session
	err     error
	gotID   string
}

func (b *stubBinder) Acquire(_ context.Context, id string) (*session.Session, bool, error) {
	b.gotID = id
	if b.err != nil {
		return nil, false, b.err
	}
	return b.session, id == "", nil
}

func TestSession(t *testing.T) {
	t.Run("binds and echoes the session", func(t *testing.T) {
		binder := &stubBinder{session: &session.Session{ID: "sess-1"}}
		var bound *session.Session
		handler := Session(binder, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bound, _ = session.FromContext(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set(SessionIDHeader, "sess-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, "sess-1", binder.gotID)
		require.NotNil(t, bound)
		assert.Equal(t, "sess-1", bound.ID)
		assert.Equal(t, "sess-1", w.Header().Get(SessionIDHeader))
	})

	t.Run("store failure", func(t *testing.T) {
		binder := &stubBinder{err: errors.New("redis down")}
		called := false
		handler := CorrelationID(Session(binder, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})))

		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var body model.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, model.ErrCodeInternalError, body.Error)
		assert.Equal(t, w.Header().Get(CorrelationIDHeader), body.CorrelationID)
	})
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name          string
		handlerStatus int
		expectedLevel string
	}{
		{name: "success logs at info", handlerStatus: http.StatusOK, expectedLevel: "info"},
		{name: "client error logs at info", handlerStatus: http.StatusNotFound, expectedLevel: "info"},
		{name: "server error logs at warn", handlerStatus: http.StatusBadGateway, expectedLevel: "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)

			h := CorrelationID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(SessionIDHeader, "5f1c2a4e-0000-4000-8000-000000000001")
				w.WriteHeader(tt.handlerStatus)
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			req.Header.Set(CorrelationIDHeader, "corr-1")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.handlerStatus, w.Code)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, "/api/cart", entry["path"])
			assert.Equal(t, float64(tt.handlerStatus), entry["status"])
			assert.Equal(t, "corr-1", entry["correlation_id"])
			assert.Equal(t, "5f1c2a4e-0000-4000-8000-000000000001", entry["session_id"])
		})
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicValue any
	}{
		{name: "panic with string", panicValue: "cart index out of range"},
		{name: "panic with error", panicValue: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CorrelationID(Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			})))

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var body model.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, model.ErrCodeInternalError, body.Error)
			assert.NotEmpty(t, body.CorrelationID)
		})
	}

	t.Run("no panic passes through", func(t *testing.T) {
		h := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/cart", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("aborted handler is re-panicked", func(t *testing.T) {
		h := Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/o1/invoice", nil))
		})
	})
}

func TestResponseWriter(t *testing.T) {
	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusAccepted)

	assert.Equal(t, http.StatusAccepted, rw.statusCode)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Same(t, w, rw.Unwrap())
	assert.NoError(t, http.NewResponseController(rw).Flush())
	assert.True(t, w.Flushed)
}
