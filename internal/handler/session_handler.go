package handler

import (
	"net/http"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// SessionHandler serves locale and credential endpoints.
type SessionHandler struct {
	logger zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		logger: logger.With().Str("handler", "session").Logger(),
	}
}

type localeResponse struct {
	Country  string `json:"country"`
	Home     bool   `json:"home"`
	Symbol   string `json:"symbol"`
	Currency string `json:"currency"`
	Resolved bool   `json:"resolved"`
}

// Locale handles GET /api/locale.
func (h *SessionHandler) Locale(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	loc := s.Locale()
	writeJSON(w, http.StatusOK, localeResponse{
		Country:  loc.Country,
		Home:     loc.Home(),
		Symbol:   loc.Symbol(),
		Currency: loc.Currency(),
		Resolved: s.LocaleResolved(),
	})
}

type credentialRequest struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type credentialResponse struct {
	SignedIn bool       `json:"signedIn"`
	User     model.User `json:"user"`
}

// SetCredential handles PUT /api/session/credential.
func (h *SessionHandler) SetCredential(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req credentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := s.Auth.Set(req.Token, req.User); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	user, ok := s.Auth.User()
	if !ok {
		// the token parsed but has already expired
		s.Auth.Clear()
		writeError(w, r, model.ErrLoginRequired, h.logger)
		return
	}

	h.logger.Info().Str("session_id", s.ID).Str("user_id", user.ID).Msg("credential stored")
	writeJSON(w, http.StatusOK, credentialResponse{SignedIn: true, User: user})
}

// ClearCredential handles DELETE /api/session/credential.
func (h *SessionHandler) ClearCredential(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	s.Auth.Clear()
	w.WriteHeader(http.StatusNoContent)
}
