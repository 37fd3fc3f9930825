package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

type BookRepository interface {
	CreateBook(ctx context.Context, req model.CreateBookRequest, actor string) (model.Book, error)
	GetBook(ctx context.Context, id int) (model.Book, error)
	GetBooksByIDs(ctx context.Context, ids []int) (map[int]model.Book, error)
	ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error)
	ListBooksByTag(ctx context.Context, tag string) ([]model.Book, error)
	UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest, actor string) (model.Book, error)
	SetTags(ctx context.Context, id int, tags model.Tags, actor string) (model.Book, error)
	DeleteBook(ctx context.Context, id int, actor string) error
	ListAuditLogs(ctx context.Context, bookID int) ([]model.AuditLog, error)
}

type ReviewRepository interface {
	CreateReview(ctx context.Context, review model.Review) (model.Review, error)
	ListReviews(ctx context.Context, bookID int) ([]model.Review, error)
	ListUserReviews(ctx context.Context, email string) ([]model.Review, error)
	RatingSummary(ctx context.Context, bookID int) (model.RatingSummary, error)
}

type BorrowRepository interface {
	Borrow(ctx context.Context, bookID int, email string, now time.Time) (model.BorrowRecord, error)
	Return(ctx context.Context, bookID int, email string, now time.Time) (model.BorrowRecord, error)
	ListBorrowers(ctx context.Context, bookID int) ([]model.BorrowRecord, error)
	ListUserBorrows(ctx context.Context, email string) ([]model.BorrowRecord, error)
	ListBorrows(ctx context.Context) ([]model.BorrowRecord, error)
	DueBorrows(ctx context.Context, dueBefore time.Time) ([]model.BorrowRecord, error)
}

type NotificationRepository interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	CreateDueNotification(ctx context.Context, n model.Notification) (model.Notification, bool, error)
	ListNotifications(ctx context.Context, email string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, email, passwordHash string) (model.User, error)
	GetUser(ctx context.Context, email string) (model.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) (model.User, error)
}

type AnalyticsRepository interface {
	MostBorrowed(ctx context.Context, limit int) ([]model.BookCount, error)
	TopRated(ctx context.Context, limit int) ([]model.BookRating, error)
	ActiveUsers(ctx context.Context, limit int) ([]model.UserBorrowCount, error)
}

//go:generate go run github.com/golang/mock/mockgen -source=repository.go -destination=mocks/mock.go

type Repository interface {
	BookRepository
	ReviewRepository
	BorrowRepository
	NotificationRepository
	UserRepository
	AnalyticsRepository
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

var _ Repository = (*repository)(nil)

const (
	booksTableName         = `books`
	reviewsTableName       = `reviews`
	borrowRecordsTableName = `borrow_records`
	auditLogsTableName     = `audit_logs`
	notificationsTableName = `notifications`
	usersTableName         = `user_credentials`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
