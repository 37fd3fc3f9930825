package service

import (
	"context"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (s *Service) AddReview(ctx context.Context, req model.CreateReviewRequest) (model.Review, error) {
	return s.repo.CreateReview(ctx, model.Review{
		BookID:     req.BookID,
		UserEmail:  req.UserEmail,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *Service) ListReviews(ctx context.Context, bookID int) ([]model.Review, error) {
	return s.repo.ListReviews(ctx, bookID)
}

func (s *Service) RatingSummary(ctx context.Context, bookID int) (model.RatingSummary, error) {
	return s.repo.RatingSummary(ctx, bookID)
}
