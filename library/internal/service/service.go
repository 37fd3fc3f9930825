package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/metrics"
	"github.com/Astemirdum/bookstore/library/internal/repository"
	"github.com/Astemirdum/bookstore/pkg/kafka"
)

type TokenIssuer interface {
	CreateToken(subject string) (token string, expiresAt time.Time, err error)
}

type Service struct {
	log       *zap.Logger
	repo      repository.Repository
	publisher kafka.Publisher
	issuer    TokenIssuer
	now       func() time.Time
}

func NewService(repo repository.Repository, publisher kafka.Publisher, issuer TokenIssuer, log *zap.Logger) *Service {
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		publisher: publisher,
		issuer:    issuer,
		now:       time.Now,
	}
}

// publish is best effort; the write it describes is already committed.
func (s *Service) publish(ctx context.Context, topic string, event kafka.Event) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		metrics.EventsPublished.WithLabelValues(topic, metrics.StatusError).Inc()
		s.log.Warn("publish event", zap.String("topic", topic), zap.Error(err))
		return
	}
	metrics.EventsPublished.WithLabelValues(topic, metrics.StatusOK).Inc()
}

func (s *Service) audit(ctx context.Context, bookID int, action, actor, message string) {
	s.publish(ctx, kafka.AuditTopic, kafka.Event{
		Type:      kafka.EventAudit,
		UserEmail: actor,
		BookID:    bookID,
		Kind:      action,
		Message:   message,
		Timestamp: s.now().UTC(),
	})
}
