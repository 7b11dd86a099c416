package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vadimbarashkov/shortlink/internal/models"
)

// NotificationStore is the durable storage for notification records.
type NotificationStore interface {
	Save(ctx context.Context, userID uuid.UUID, message string) (*models.Notification, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error)
}

// NotificationService records per-user messages. Records are immutable and
// retained; read-state tracking belongs to a richer inbox, not here.
type NotificationService struct {
	store  NotificationStore
	logger *slog.Logger
}

func NewNotificationService(store NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// Send durably records a message for the user.
func (s *NotificationService) Send(ctx context.Context, userID uuid.UUID, message string) error {
	const op = "service.NotificationService.Send"

	if _, err := s.store.Save(ctx, userID, message); err != nil {
		return fmt.Errorf("%s: failed to save notification: %w", op, err)
	}

	s.logger.Info("notification sent",
		slog.String("user_id", userID.String()),
		slog.String("message", message),
	)

	return nil
}

// History returns the user's notifications, newest first.
func (s *NotificationService) History(ctx context.Context, userID uuid.UUID) ([]*models.Notification, error) {
	const op = "service.NotificationService.History"

	notifications, err := s.store.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list notifications: %w", op, err)
	}

	return notifications, nil
}
