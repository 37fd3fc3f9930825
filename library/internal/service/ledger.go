package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/pkg/kafka"
)

func (s *Service) Borrow(ctx context.Context, bookID int, email string) (model.BorrowRecord, error) {
	return s.repo.Borrow(ctx, bookID, email, s.now().UTC())
}

// Return closes the active loan and leaves the reader a "returned" notification.
func (s *Service) Return(ctx context.Context, bookID int, email string) (model.BorrowRecord, error) {
	rec, err := s.repo.Return(ctx, bookID, email, s.now().UTC())
	if err != nil {
		return model.BorrowRecord{}, err
	}

	n, err := s.repo.CreateNotification(ctx, model.Notification{
		UserEmail: email,
		BookID:    &bookID,
		Kind:      model.NotificationReturned,
		Message:   fmt.Sprintf("Book ID %d returned on %s", bookID, rec.ReturnedAt.Format("2006-01-02")),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Error("return notification", zap.Int("book_id", bookID), zap.String("user", email), zap.Error(err))
		return rec, nil
	}
	s.publish(ctx, kafka.NotificationTopic, kafka.Event{
		Type:      kafka.EventNotification,
		UserEmail: n.UserEmail,
		BookID:    bookID,
		Kind:      string(n.Kind),
		Message:   n.Message,
		Timestamp: n.CreatedAt,
	})
	return rec, nil
}

func (s *Service) ListBorrowers(ctx context.Context, bookID int) ([]model.BorrowRecord, error) {
	return s.repo.ListBorrowers(ctx, bookID)
}
