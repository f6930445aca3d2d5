package notification

import (
	"context"
	"fmt"

	"github.com/tourney-api/internal/domain"
	"github.com/tourney-api/internal/pkg/retry"
)

// Store is the slice of the notification repository this service needs.
type Store interface {
	Get(ctx context.Context, notificationID string) (*domain.Notification, error)
	ListUnread(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, notificationID string) error
}

type Service struct {
	notifications Store
}

func NewService(notifications Store) *Service {
	return &Service{notifications: notifications}
}

// ListUnread returns the caller's unread notifications, newest first.
func (s *Service) ListUnread(ctx context.Context, userID string) ([]domain.Notification, error) {
	var ns []domain.Notification
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ns, err = s.notifications.ListUnread(ctx, userID)
		return err
	})
	return ns, err
}

// MarkAsRead flags a notification read. Callers can only touch their own.
func (s *Service) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return fmt.Errorf("notification belongs to another user: %w", domain.ErrForbidden)
	}
	if n.Read != 0 {
		return nil
	}
	return retry.Do(ctx, func(ctx context.Context) error {
		return s.notifications.MarkAsRead(ctx, notificationID)
	})
}
