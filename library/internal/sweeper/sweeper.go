package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/config"
	"github.com/Astemirdum/bookstore/library/internal/metrics"
	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/pkg/kafka"
)

type Store interface {
	DueBorrows(ctx context.Context, dueBefore time.Time) ([]model.BorrowRecord, error)
	// CreateDueNotification reports false when an unread reminder for the same borrow already exists.
	CreateDueNotification(ctx context.Context, n model.Notification) (model.Notification, bool, error)
}

// Sweeper reminds readers about loans that fall due within the window.
// It runs as a supervised service: first pass after InitialDelay, then every Interval.
type Sweeper struct {
	store     Store
	publisher kafka.Publisher
	cfg       config.Sweeper
	log       *zap.Logger
	now       func() time.Time
}

func New(store Store, publisher kafka.Publisher, cfg config.Sweeper, log *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	return &Sweeper{
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log.Named("sweeper"),
		now:       time.Now,
	}
}

func (s *Sweeper) Serve(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.InitialDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			// a failed pass waits for the next tick
			if _, err := s.Sweep(ctx); err != nil {
				s.log.Error("sweep", zap.Error(err))
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Sweeper) String() string {
	return "notification-sweeper"
}

// Sweep writes at most one unread due_soon notification per active loan due
// within the window. Each insert is its own statement, so one failing loan
// leaves the others untouched. It returns the number of notifications created.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := s.now()
	now := start.UTC()
	borrows, err := s.store.DueBorrows(ctx, now.Add(s.cfg.Window))
	if err != nil {
		metrics.SweepsTotal.WithLabelValues(metrics.StatusError).Inc()
		return 0, errors.Wrap(err, "due borrows")
	}

	var created, failed int
	for _, b := range borrows {
		if ctx.Err() != nil {
			break
		}
		bookID := b.BookID
		n, ok, err := s.store.CreateDueNotification(ctx, model.Notification{
			UserEmail: b.UserEmail,
			BookID:    &bookID,
			Kind:      model.NotificationDueSoon,
			Message:   fmt.Sprintf("Book %d is due soon!", b.BookID),
			CreatedAt: now,
		})
		if err != nil {
			failed++
			metrics.SweepBorrowFailures.Inc()
			s.log.Error("create due notification",
				zap.Int("borrow_id", b.ID),
				zap.Int("book_id", b.BookID),
				zap.String("user", b.UserEmail),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		created++
		metrics.DueNotificationsCreated.Inc()
		if err := s.publisher.Publish(ctx, kafka.NotificationTopic, kafka.Event{
			Type:      kafka.EventNotification,
			UserEmail: n.UserEmail,
			BookID:    bookID,
			Kind:      string(n.Kind),
			Message:   n.Message,
			Timestamp: n.CreatedAt,
		}); err != nil {
			metrics.EventsPublished.WithLabelValues(kafka.NotificationTopic, metrics.StatusError).Inc()
			s.log.Warn("publish due notification", zap.Int("notification_id", n.ID), zap.Error(err))
		} else {
			metrics.EventsPublished.WithLabelValues(kafka.NotificationTopic, metrics.StatusOK).Inc()
		}
	}

	metrics.SweepsTotal.WithLabelValues(metrics.StatusOK).Inc()
	metrics.SweepDuration.Observe(s.now().Sub(start).Seconds())
	s.log.Info("sweep done",
		zap.Int("due", len(borrows)),
		zap.Int("created", created),
		zap.Int("failed", failed))
	return created, nil
}
