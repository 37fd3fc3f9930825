package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
)

var reviewColumns = []string{"id", "book_id", "user_email", "rating", "review_text", "created_at"}

func (r *repository) CreateReview(ctx context.Context, review model.Review) (model.Review, error) {
	q := fmt.Sprintf(`insert into %s (book_id, user_email, rating, review_text, created_at)
	values (@book_id, @user_email, @rating, @review_text, @created_at)
	returning id, book_id, user_email, rating, review_text, created_at`, reviewsTableName)
	args := pgx.NamedArgs{
		"book_id":     review.BookID,
		"user_email":  review.UserEmail,
		"rating":      review.Rating,
		"review_text": review.ReviewText,
		"created_at":  review.CreatedAt,
	}
	created, err := collectOne[model.Review](ctx, r.db, q, args)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.Review{}, errs.ErrBookNotFound
		}
		r.log.Error("CreateReview", zap.Int("book_id", review.BookID), zap.Error(err))
		return model.Review{}, errors.Wrap(err, "CreateReview")
	}
	return created, nil
}

func (r *repository) ListReviews(ctx context.Context, bookID int) ([]model.Review, error) {
	return r.listReviews(ctx, sq.Eq{"book_id": bookID})
}

func (r *repository) ListUserReviews(ctx context.Context, email string) ([]model.Review, error) {
	return r.listReviews(ctx, sq.Eq{"user_email": email})
}

func (r *repository) listReviews(ctx context.Context, where sq.Eq) ([]model.Review, error) {
	query, args, err := qb.Select(reviewColumns...).
		From(reviewsTableName).
		Where(where).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	reviews, err := collectList[model.Review](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListReviews")
	}
	return reviews, nil
}

// RatingSummary reports a zero average for a book without reviews.
func (r *repository) RatingSummary(ctx context.Context, bookID int) (model.RatingSummary, error) {
	q := fmt.Sprintf(`select $1::int as book_id,
	coalesce(round(avg(rating)::numeric, 2), 0)::float8 as average_rating,
	count(*)::int as total_ratings
	from %s where book_id = $1`, reviewsTableName)
	summary, err := collectOne[model.RatingSummary](ctx, r.db, q, bookID)
	if err != nil {
		return model.RatingSummary{}, errors.Wrap(err, "RatingSummary")
	}
	return summary, nil
}
