// Package handler serves the storefront HTTP surface. Every handler works on
// the session bound by the session middleware.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

const maxJSONBody = 1 << 20

var errNoSession = errors.New("no session bound to request")

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError maps err onto a status code and the standard error body.
// Domain errors are client errors, backend errors keep the backend's status
// and anything else is a 500 whose detail stays in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	status, resp := errorResponse(err)
	resp.CorrelationID = middleware.CorrelationIDFrom(r.Context())

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Err(err).
		Int("status", status).
		Str("code", resp.Error).
		Str("path", r.URL.Path).
		Str("correlation_id", resp.CorrelationID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

func errorResponse(err error) (int, model.ErrorResponse) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		resp := model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message}
		if domainErr.Code == model.ErrCodeLoginRequired {
			resp.Redirect = checkout.LoginPath
		}
		return domainStatus(domainErr.Code), resp
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		resp := model.ErrorResponse{Error: model.ErrCodeUpstream, Message: apiErr.Message}
		if status == http.StatusUnauthorized {
			resp.Redirect = checkout.LoginPath
		}
		return status, resp
	}

	if errors.Is(err, auth.ErrMissingToken) || errors.Is(err, auth.ErrInvalidToken) {
		return http.StatusBadRequest, model.ErrorResponse{Error: model.ErrCodeInvalidToken, Message: "Invalid credential"}
	}

	if errors.Is(err, checkout.ErrSessionClosed) {
		return http.StatusGone, model.ErrorResponse{Error: model.ErrCodeInternalError, Message: "Session expired"}
	}

	return http.StatusInternalServerError, model.ErrorResponse{Error: model.ErrCodeInternalError, Message: "internal server error"}
}

func domainStatus(code string) int {
	switch code {
	case model.ErrCodeLoginRequired:
		return http.StatusUnauthorized
	case model.ErrCodeProductNotFound, model.ErrCodeOrderNotFound:
		return http.StatusNotFound
	case model.ErrCodeCheckoutInProgress, model.ErrCodeOrderNotCancellable, model.ErrCodeOrderNotReturnable, model.ErrCodeNoPaymentPending:
		return http.StatusConflict
	case model.ErrCodePaymentFailed, model.ErrCodePaymentCancelled, model.ErrCodeVerificationFailed:
		return http.StatusPaymentRequired
	case model.ErrCodePaymentDetailsMissing:
		return http.StatusBadGateway
	case model.ErrCodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// current returns the request's session.
func current(r *http.Request) (*session.Session, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return nil, errNoSession
	}
	return s, nil
}

// bearer returns the session's token or ErrLoginRequired.
func bearer(s *session.Session) (string, error) {
	token := s.Auth.Token()
	if token == "" {
		return "", model.ErrLoginRequired
	}
	return token, nil
}
