package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/metrics"
	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/library/internal/recommend"
)

const (
	DefaultRecommendLimit = 5
	MaxRecommendLimit     = 50
)

// Recommend rebuilds the index from the ledger on each call.
func (s *Service) Recommend(ctx context.Context, email string, limit int) ([]model.Book, error) {
	if limit <= 0 {
		limit = DefaultRecommendLimit
	}
	borrows, err := s.repo.ListBorrows(ctx)
	if err != nil {
		return nil, err
	}
	res := recommend.NewIndex(borrows).Recommend(email)
	metrics.RecommendationsTotal.WithLabelValues(string(res.Source)).Inc()
	s.log.Debug("recommend",
		zap.String("user", email),
		zap.String("source", string(res.Source)),
		zap.Int("candidates", len(res.BookIDs)))

	return s.resolveBooks(ctx, "recommend", res.BookIDs, limit)
}

// resolveBooks loads books in rank order, skipping ids that no longer exist.
func (s *Service) resolveBooks(ctx context.Context, component string, ids []int, limit int) ([]model.Book, error) {
	books := make([]model.Book, 0, min(len(ids), limit))
	if len(ids) == 0 {
		return books, nil
	}
	byID, err := s.repo.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if len(books) == limit {
			break
		}
		book, ok := byID[id]
		if !ok {
			metrics.DanglingBookRefs.WithLabelValues(component).Inc()
			s.log.Warn("dangling book reference", zap.String("component", component), zap.Int("book_id", id))
			continue
		}
		books = append(books, book)
	}
	return books, nil
}
