package handler

import (
	"context"
	"io"

	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/library/internal/service"
	"github.com/Astemirdum/bookstore/library/internal/storage"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest, actor string) (model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest, actor string) (model.Book, error)
	DeleteBook(ctx context.Context, id int, actor string) error
	SetTags(ctx context.Context, id int, raw string, actor string) (model.Book, error)
	ListBooksByTag(ctx context.Context, tag string) ([]model.Book, error)
	BookHistory(ctx context.Context, id int) ([]model.AuditLog, error)
}

type ReviewService interface {
	AddReview(ctx context.Context, req model.CreateReviewRequest) (model.Review, error)
	ListReviews(ctx context.Context, bookID int) ([]model.Review, error)
	RatingSummary(ctx context.Context, bookID int) (model.RatingSummary, error)
}

type LedgerService interface {
	Borrow(ctx context.Context, bookID int, email string) (model.BorrowRecord, error)
	Return(ctx context.Context, bookID int, email string) (model.BorrowRecord, error)
	ListBorrowers(ctx context.Context, bookID int) ([]model.BorrowRecord, error)
}

type InsightService interface {
	Recommend(ctx context.Context, email string, limit int) ([]model.Book, error)
	MostBorrowed(ctx context.Context) ([]model.Book, error)
	TopRated(ctx context.Context) ([]model.Book, error)
	ActiveUsers(ctx context.Context) ([]model.UserBorrowCount, error)
}

type UserService interface {
	Signup(ctx context.Context, cred model.Credentials) (model.User, error)
	Login(ctx context.Context, cred model.Credentials) (model.AuthResponse, error)
	Profile(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, email string, req model.UpdateProfileRequest) (model.User, error)
	UserHistory(ctx context.Context, email string) (model.UserHistory, error)
	ListNotifications(ctx context.Context, email string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
}

type LibraryService interface {
	BookService
	ReviewService
	LedgerService
	InsightService
	UserService
}

type ImageStore interface {
	Store(filename string, r io.Reader) (string, error)
	Path(name string) (string, error)
	Remove(ref string) error
}

var (
	_ LibraryService = (*service.Service)(nil)
	_ ImageStore     = (*storage.FileStore)(nil)
)
