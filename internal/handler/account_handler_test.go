package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccountService is a mock implementation of AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, token string, current model.User, upd model.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, token, current, upd)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, token string, pc model.PasswordChange) error {
	args := m.Called(ctx, token, pc)
	return args.Error(0)
}

// MockNotificationService is a mock implementation of NotificationService.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, token string) (model.NotificationFeed, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.NotificationFeed), args.Error(1)
}

func (m *MockNotificationService) MarkRead(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func TestAccountHandler_UpdateProfile(t *testing.T) {
	t.Run("stores the saved profile in the session", func(t *testing.T) {
		s := newTestSession(t, nil)
		signIn(t, s, shopper)
		saved := shopper
		saved.Phone = "9876543210"

		accounts := new(MockAccountService)
		accounts.On("UpdateProfile", mock.Anything, "token-abc", shopper, mock.MatchedBy(func(upd model.ProfileUpdate) bool {
			return upd.Phone == "9876543210" &&
				upd.NewPassword == "new-secret" &&
				upd.ConfirmPassword == "new-secret" &&
				len(upd.Addresses) == 1
		})).Return(saved, nil)
		h := NewAccountHandler(accounts, new(MockNotificationService), zerolog.Nop())

		body := `{"firstName":"Asha","phone":"9876543210","addresses":[{"address":"12 MG Road","city":"Pune","state":"MH","pincode":"411001"}],` +
			`"currentPassword":"old","newPassword":"new-secret","confirmPassword":"new-secret"}`
		rec := serveJSON(s, http.MethodPut, "/api/profile", "/api/profile", body, h.UpdateProfile)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp profileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "9876543210", resp.Customer.Phone)
		user, ok := s.Auth.User()
		require.True(t, ok)
		assert.Equal(t, "9876543210", user.Phone)
		accounts.AssertExpectations(t)
	})

	t.Run("validation error keeps the session profile", func(t *testing.T) {
		s := newTestSession(t, nil)
		signIn(t, s, shopper)
		accounts := new(MockAccountService)
		accounts.On("UpdateProfile", mock.Anything, "token-abc", shopper, mock.Anything).Return(model.User{}, model.ErrAddressListEmpty)
		h := NewAccountHandler(accounts, new(MockNotificationService), zerolog.Nop())

		rec := serveJSON(s, http.MethodPut, "/api/profile", "/api/profile", `{"addresses":[]}`, h.UpdateProfile)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, model.ErrCodeAddressListEmpty, decodeError(t, rec).Error)
		assert.Equal(t, shopper, s.Auth.Profile())
	})

	t.Run("signed out", func(t *testing.T) {
		s := newTestSession(t, nil)
		accounts := new(MockAccountService)
		h := NewAccountHandler(accounts, new(MockNotificationService), zerolog.Nop())

		rec := serveJSON(s, http.MethodPut, "/api/profile", "/api/profile", `{}`, h.UpdateProfile)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		accounts.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAccountHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "changed", expectedStatus: http.StatusNoContent},
		{name: "mismatch", mockError: model.ErrPasswordMismatch, expectedStatus: http.StatusBadRequest},
		{name: "backend failure", mockError: errors.New("backend down"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, nil)
			signIn(t, s, shopper)
			accounts := new(MockAccountService)
			accounts.On("ChangePassword", mock.Anything, "token-abc", model.PasswordChange{
				CurrentPassword: "old",
				NewPassword:     "new-secret",
				ConfirmPassword: "new-secret",
			}).Return(tt.mockError)
			h := NewAccountHandler(accounts, new(MockNotificationService), zerolog.Nop())

			body := `{"currentPassword":"old","newPassword":"new-secret","confirmPassword":"new-secret"}`
			rec := serveJSON(s, http.MethodPost, "/api/profile/password", "/api/profile/password", body, h.ChangePassword)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			accounts.AssertExpectations(t)
		})
	}
}

func sampleFeed() model.NotificationFeed {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return model.NotificationFeed{
		Notifications: []model.Notification{
			{ID: "n1", Title: "Order shipped", Timestamp: at},
			{ID: "n2", Title: "Order delivered", Read: true, Timestamp: at},
		},
		UnreadCount: 1,
	}
}

func TestAccountHandler_Notifications(t *testing.T) {
	s := newTestSession(t, nil)
	signIn(t, s, shopper)
	notifications := new(MockNotificationService)
	notifications.On("List", mock.Anything, "token-abc").Return(sampleFeed(), nil)
	h := NewAccountHandler(new(MockAccountService), notifications, zerolog.Nop())

	rec := serve(s, http.MethodGet, "/api/notifications", "/api/notifications", nil, h.Notifications)

	require.Equal(t, http.StatusOK, rec.Code)
	var feed model.NotificationFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Len(t, feed.Notifications, 2)
	assert.Equal(t, 1, feed.UnreadCount)
	assert.Equal(t, 1, s.Inbox.Feed().UnreadCount)
}

func TestAccountHandler_MarkNotificationRead(t *testing.T) {
	tests := []struct {
		name          string
		backendError  error
		expectedCount int
	}{
		{name: "confirmed by backend", expectedCount: 0},
		{name: "backend failure keeps local state", backendError: errors.New("backend down"), expectedCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, nil)
			signIn(t, s, shopper)
			s.Inbox.Replace(sampleFeed())
			notifications := new(MockNotificationService)
			notifications.On("MarkRead", mock.Anything, "token-abc", "n1").Return(tt.backendError)
			h := NewAccountHandler(new(MockAccountService), notifications, zerolog.Nop())

			rec := serve(s, http.MethodPost, "/api/notifications/{id}/read", "/api/notifications/n1/read", nil, h.MarkNotificationRead)

			require.Equal(t, http.StatusOK, rec.Code)
			var feed model.NotificationFeed
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
			assert.Equal(t, tt.expectedCount, feed.UnreadCount)
			assert.True(t, feed.Notifications[0].Read)
			notifications.AssertExpectations(t)
		})
	}
}
