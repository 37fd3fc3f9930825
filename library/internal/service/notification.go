package service

import (
	"context"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (s *Service) ListNotifications(ctx context.Context, email string) ([]model.Notification, error) {
	return s.repo.ListNotifications(ctx, email)
}

// MarkNotificationRead also re-arms the sweeper for a still-due borrow.
func (s *Service) MarkNotificationRead(ctx context.Context, id int) error {
	return s.repo.MarkNotificationRead(ctx, id)
}
