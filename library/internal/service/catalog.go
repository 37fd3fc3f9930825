package service

import (
	"context"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest, actor string) (model.Book, error) {
	book, err := s.repo.CreateBook(ctx, req, actor)
	if err != nil {
		return model.Book{}, err
	}
	s.audit(ctx, book.ID, string(model.AuditCreate), actor, book.Name)
	return book, nil
}

func (s *Service) GetBook(ctx context.Context, id int) (model.Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	return s.repo.ListBooks(ctx, filter)
}

func (s *Service) UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest, actor string) (model.Book, error) {
	if req.Empty() {
		return s.repo.GetBook(ctx, id)
	}
	book, err := s.repo.UpdateBook(ctx, id, req, actor)
	if err != nil {
		return model.Book{}, err
	}
	s.audit(ctx, id, string(model.AuditUpdate), actor, book.Name)
	return book, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int, actor string) error {
	if err := s.repo.DeleteBook(ctx, id, actor); err != nil {
		return err
	}
	s.audit(ctx, id, string(model.AuditDelete), actor, "Book deleted")
	return nil
}

// SetTags replaces the tag set with the parsed comma-delimited list.
func (s *Service) SetTags(ctx context.Context, id int, raw string, actor string) (model.Book, error) {
	book, err := s.repo.SetTags(ctx, id, model.ParseTags(raw), actor)
	if err != nil {
		return model.Book{}, err
	}
	s.audit(ctx, id, string(model.AuditTag), actor, book.Tags.String())
	return book, nil
}

func (s *Service) ListBooksByTag(ctx context.Context, tag string) ([]model.Book, error) {
	return s.repo.ListBooksByTag(ctx, tag)
}

// BookHistory outlives the book, so a deleted id still has its trail.
func (s *Service) BookHistory(ctx context.Context, id int) ([]model.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, id)
}
