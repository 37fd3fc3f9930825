package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
)

var notificationColumns = []string{"id", "user_email", "book_id", "kind", "message", "created_at", "read"}

const notificationInsert = `insert into %s (user_email, book_id, kind, message, created_at)
	values (@user_email, @book_id, @kind, @message, @created_at) %s
	returning id, user_email, book_id, kind, message, created_at, read`

func notificationArgs(n model.Notification) pgx.NamedArgs {
	return pgx.NamedArgs{
		"user_email": n.UserEmail,
		"book_id":    n.BookID,
		"kind":       string(n.Kind),
		"message":    n.Message,
		"created_at": n.CreatedAt,
	}
}

func (r *repository) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	q := fmt.Sprintf(notificationInsert, notificationsTableName, "")
	created, err := collectOne[model.Notification](ctx, r.db, q, notificationArgs(n))
	if err != nil {
		return model.Notification{}, errors.Wrap(err, "CreateNotification")
	}
	return created, nil
}

// CreateDueNotification inserts a due_soon reminder unless an unread one
// already exists for the same user and book. The bool reports whether a row was written.
func (r *repository) CreateDueNotification(ctx context.Context, n model.Notification) (model.Notification, bool, error) {
	n.Kind = model.NotificationDueSoon
	q := fmt.Sprintf(notificationInsert, notificationsTableName,
		`on conflict (user_email, book_id, kind) where not read and book_id is not null and kind = 'due_soon' do nothing`)
	created, err := collectOne[model.Notification](ctx, r.db, q, notificationArgs(n))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Notification{}, false, nil
		}
		return model.Notification{}, false, errors.Wrap(err, "CreateDueNotification")
	}
	return created, true, nil
}

func (r *repository) ListNotifications(ctx context.Context, email string) ([]model.Notification, error) {
	query, args, err := qb.Select(notificationColumns...).
		From(notificationsTableName).
		Where(sq.Eq{"user_email": email}).
		OrderBy("created_at desc", "id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	list, err := collectList[model.Notification](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListNotifications")
	}
	return list, nil
}

func (r *repository) MarkNotificationRead(ctx context.Context, id int) error {
	query, args, err := qb.Update(notificationsTableName).
		Set("read", true).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "MarkNotificationRead")
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotificationNotFound
	}
	return nil
}
