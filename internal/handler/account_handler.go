package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// AccountHandler serves the profile page and the notification bell.
type AccountHandler struct {
	accounts      service.AccountService
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accounts service.AccountService, notifications service.NotificationService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts:      accounts,
		notifications: notifications,
		logger:        logger.With().Str("handler", "account").Logger(),
	}
}

type profileRequest struct {
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Addresses       []model.Address `json:"addresses"`
	CurrentPassword string          `json:"currentPassword"`
	NewPassword     string          `json:"newPassword"`
	ConfirmPassword string          `json:"confirmPassword"`
}

type profileResponse struct {
	Customer model.User `json:"customer"`
}

// UpdateProfile handles PUT /api/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), token, s.Auth.Profile(), model.ProfileUpdate{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Addresses:       req.Addresses,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	s.Auth.UpdateUser(updated)
	writeJSON(w, http.StatusOK, profileResponse{Customer: updated})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword handles POST /api/profile/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), token, model.PasswordChange(req)); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications handles GET /api/notifications and refreshes the session inbox.
func (h *AccountHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	feed, err := h.notifications.List(r.Context(), token)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	s.Inbox.Replace(feed)
	writeJSON(w, http.StatusOK, s.Inbox.Feed())
}

// MarkNotificationRead handles POST /api/notifications/{id}/read. The inbox
// is updated first; a backend failure is logged and the local state kept.
func (h *AccountHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	token, err := bearer(s)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, r, model.NewDomainError(model.ErrCodeMissingField, "Notification id is required"), h.logger)
		return
	}

	feed := s.Inbox.MarkRead(id)
	if err := h.notifications.MarkRead(r.Context(), token, id); err != nil {
		h.logger.Warn().Err(err).Str("notification_id", id).Msg("mark read not confirmed by backend")
	}
	writeJSON(w, http.StatusOK, feed)
}
