package service

import (
	"context"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

const AnalyticsLimit = 5

func (s *Service) MostBorrowed(ctx context.Context) ([]model.Book, error) {
	counts, err := s.repo.MostBorrowed(ctx, AnalyticsLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(counts))
	for _, c := range counts {
		ids = append(ids, c.BookID)
	}
	return s.resolveBooks(ctx, "most_borrowed", ids, AnalyticsLimit)
}

func (s *Service) TopRated(ctx context.Context) ([]model.Book, error) {
	ratings, err := s.repo.TopRated(ctx, AnalyticsLimit)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(ratings))
	for _, r := range ratings {
		ids = append(ids, r.BookID)
	}
	return s.resolveBooks(ctx, "top_rated", ids, AnalyticsLimit)
}

func (s *Service) ActiveUsers(ctx context.Context) ([]model.UserBorrowCount, error) {
	return s.repo.ActiveUsers(ctx, AnalyticsLimit)
}
