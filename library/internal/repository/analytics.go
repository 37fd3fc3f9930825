package repository

import (
	"context"

	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

// MostBorrowed counts every loan, returned or not. Loans of deleted books are
// skipped before the limit applies.
func (r *repository) MostBorrowed(ctx context.Context, limit int) ([]model.BookCount, error) {
	query, args, err := qb.Select("br.book_id", "count(*)::int as cnt").
		From(borrowRecordsTableName+" br").
		Join(booksTableName+" b on b.id = br.book_id").
		GroupBy("br.book_id").
		OrderBy("cnt desc", "br.book_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	counts, err := collectList[model.BookCount](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "MostBorrowed")
	}
	return counts, nil
}

func (r *repository) TopRated(ctx context.Context, limit int) ([]model.BookRating, error) {
	query, args, err := qb.Select("rv.book_id", "avg(rv.rating)::float8 as avg_rating").
		From(reviewsTableName+" rv").
		Join(booksTableName+" b on b.id = rv.book_id").
		GroupBy("rv.book_id").
		OrderBy("avg_rating desc", "rv.book_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	ratings, err := collectList[model.BookRating](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "TopRated")
	}
	return ratings, nil
}

func (r *repository) ActiveUsers(ctx context.Context, limit int) ([]model.UserBorrowCount, error) {
	query, args, err := qb.Select("user_email", "count(*)::int as borrow_count").
		From(borrowRecordsTableName).
		GroupBy("user_email").
		OrderBy("borrow_count desc", "user_email").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	users, err := collectList[model.UserBorrowCount](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ActiveUsers")
	}
	return users, nil
}
