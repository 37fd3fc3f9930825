package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
)

var borrowColumns = []string{"id", "book_id", "user_email", "borrowed_at", "due_date", "returned_at"}

const borrowReturning = `returning id, book_id, user_email, borrowed_at, due_date, returned_at`

// Borrow opens a loan. The partial unique index on active loans is the
// final arbiter when two requests race for the same book.
func (r *repository) Borrow(ctx context.Context, bookID int, email string, now time.Time) (model.BorrowRecord, error) {
	var rec model.BorrowRecord
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var id int
		q := fmt.Sprintf(`select id from %s where id = $1 for share`, booksTableName)
		if err := tx.QueryRow(ctx, q, bookID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrBookNotFound
			}
			return errors.Wrap(err, "lock book")
		}

		q = fmt.Sprintf(`insert into %s (book_id, user_email, borrowed_at, due_date)
		values (@book_id, @user_email, @borrowed_at, @due_date) %s`, borrowRecordsTableName, borrowReturning)
		args := pgx.NamedArgs{
			"book_id":     bookID,
			"user_email":  email,
			"borrowed_at": now,
			"due_date":    now.Add(model.LoanPeriod),
		}
		created, err := collectOne[model.BorrowRecord](ctx, tx, q, args)
		if err != nil {
			if isUniqueViolation(err) {
				return errs.ErrAlreadyBorrowed
			}
			return errors.Wrap(err, "insert borrow")
		}
		rec = created
		return nil
	})
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) && !errors.Is(err, errs.ErrConflict) {
			r.log.Error("Borrow", zap.Int("book_id", bookID), zap.Error(err))
		}
		return model.BorrowRecord{}, err
	}
	return rec, nil
}

func (r *repository) Return(ctx context.Context, bookID int, email string, now time.Time) (model.BorrowRecord, error) {
	q := fmt.Sprintf(`update %s set returned_at = @returned_at
	where book_id = @book_id and user_email = @user_email and returned_at is null %s`,
		borrowRecordsTableName, borrowReturning)
	args := pgx.NamedArgs{
		"returned_at": now,
		"book_id":     bookID,
		"user_email":  email,
	}
	rec, err := collectOne[model.BorrowRecord](ctx, r.db, q, args)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.BorrowRecord{}, errs.ErrNoActiveBorrow
		}
		return model.BorrowRecord{}, errors.Wrap(err, "Return")
	}
	return rec, nil
}

// ListBorrowers returns the book's loans, newest first.
func (r *repository) ListBorrowers(ctx context.Context, bookID int) ([]model.BorrowRecord, error) {
	return r.listBorrows(ctx, sq.Eq{"book_id": bookID}, "borrowed_at desc", "id desc")
}

func (r *repository) ListUserBorrows(ctx context.Context, email string) ([]model.BorrowRecord, error) {
	return r.listBorrows(ctx, sq.Eq{"user_email": email}, "borrowed_at", "id")
}

// ListBorrows returns the whole ledger.
func (r *repository) ListBorrows(ctx context.Context) ([]model.BorrowRecord, error) {
	return r.listBorrows(ctx, nil, "id")
}

// DueBorrows lists active loans due no later than dueBefore.
func (r *repository) DueBorrows(ctx context.Context, dueBefore time.Time) ([]model.BorrowRecord, error) {
	return r.listBorrows(ctx, sq.And{
		sq.Eq{"returned_at": nil},
		sq.LtOrEq{"due_date": dueBefore},
	}, "due_date", "id")
}

func (r *repository) listBorrows(ctx context.Context, where sq.Sqlizer, orderBy ...string) ([]model.BorrowRecord, error) {
	b := qb.Select(borrowColumns...).From(borrowRecordsTableName)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.OrderBy(orderBy...).ToSql()
	if err != nil {
		return nil, err
	}
	recs, err := collectList[model.BorrowRecord](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListBorrows")
	}
	return recs, nil
}
