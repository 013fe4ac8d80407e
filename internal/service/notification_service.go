package service

import (
	"context"
	"strings"

	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// notificationService implements NotificationService.
type notificationService struct {
	api    NotificationBackend
	logger zerolog.Logger
}

// NewNotificationService creates a notification service.
func NewNotificationService(api NotificationBackend, logger zerolog.Logger) NotificationService {
	return &notificationService{
		api:    api,
		logger: logger.With().Str("service", "notification").Logger(),
	}
}

func (s *notificationService) List(ctx context.Context, token string) (model.NotificationFeed, error) {
	feed, err := s.api.Notifications(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch notifications")
		return model.NotificationFeed{}, err
	}
	if feed.Notifications == nil {
		feed.Notifications = []model.Notification{}
	}
	if feed.UnreadCount < 0 {
		feed.UnreadCount = 0
	}
	return feed, nil
}

func (s *notificationService) MarkRead(ctx context.Context, token, id string) error {
	if strings.TrimSpace(id) == "" {
		return model.NewDomainError(model.ErrCodeMissingField, "Notification id is required")
	}
	if err := s.api.MarkNotificationRead(ctx, token, id); err != nil {
		s.logger.Warn().Err(err).Str("notification_id", id).Msg("failed to mark notification read")
		return err
	}
	return nil
}
