package service

import (
	"context"

	"github.com/flash-wallet-ledger/internal/domain/notification"
	"github.com/flash-wallet-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

type NotificationServiceImpl struct {
	notificationRepo notification.Repository
}

func NewNotificationService(notificationRepo notification.Repository) NotificationService {
	return &NotificationServiceImpl{notificationRepo: notificationRepo}
}

func (s *NotificationServiceImpl) List(ctx context.Context, accountID uuid.UUID, unreadOnly bool, limit, offset int) ([]*notification.Notification, int64, error) {
	limit, offset = shared.NormalizePage(limit, offset)
	items, err := s.notificationRepo.ListByAccount(ctx, accountID, unreadOnly, limit, offset)
	if err != nil {
		return nil, 0, classify("list notifications", err)
	}
	unread, err := s.notificationRepo.CountUnread(ctx, accountID)
	if err != nil {
		return nil, 0, classify("count unread notifications", err)
	}
	return items, unread, nil
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, accountID, id uuid.UUID) error {
	return classify("mark notification read", s.notificationRepo.MarkRead(ctx, accountID, id))
}

func (s *NotificationServiceImpl) MarkAllRead(ctx context.Context, accountID uuid.UUID) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, accountID)
	if err != nil {
		return 0, classify("mark all notifications read", err)
	}
	return n, nil
}

func (s *NotificationServiceImpl) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	return classify("delete notification", s.notificationRepo.Delete(ctx, accountID, id))
}
