package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Book struct {
	ID            int     `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Author        string  `json:"author" db:"author"`
	PublishedYear int     `json:"published_year" db:"published_year"`
	BookSummary   string  `json:"book_summary" db:"book_summary"`
	CoverImageURL *string `json:"cover_image_url" db:"cover_image_url"`
	Tags          Tags    `json:"tags" db:"tags"`
}

// Tags is stored as comma-delimited text.
type Tags []string

func ParseTags(raw string) Tags {
	var tags Tags
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (t Tags) String() string {
	return strings.Join(t, ",")
}

func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return nil, nil
	}
	return t.String(), nil
}

func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
	case string:
		*t = ParseTags(v)
	case []byte:
		*t = ParseTags(string(v))
	default:
		return fmt.Errorf("tags: unsupported type %T", src)
	}
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

type CreateBookRequest struct {
	Name          string  `json:"name" form:"name" validate:"required"`
	Author        string  `json:"author" form:"author" validate:"required"`
	PublishedYear int     `json:"published_year" form:"published_year" validate:"required"`
	BookSummary   string  `json:"book_summary" form:"book_summary" validate:"required"`
	Tags          string  `json:"tags" form:"tags"`
	CoverImageURL *string `json:"-" form:"-"`
}

// UpdateBookRequest carries a partial update; nil fields are left untouched.
type UpdateBookRequest struct {
	Name          *string `json:"name,omitempty" form:"name"`
	Author        *string `json:"author,omitempty" form:"author"`
	PublishedYear *int    `json:"published_year,omitempty" form:"published_year"`
	BookSummary   *string `json:"book_summary,omitempty" form:"book_summary"`
	CoverImageURL *string `json:"cover_image_url,omitempty" form:"cover_image_url"`
	Tags          *string `json:"tags,omitempty" form:"tags"`
}

func (r UpdateBookRequest) Empty() bool {
	return r.Name == nil && r.Author == nil && r.PublishedYear == nil &&
		r.BookSummary == nil && r.CoverImageURL == nil && r.Tags == nil
}

type BookFilter struct {
	Author  string `query:"author"`
	YearMin *int   `query:"year_min"`
	YearMax *int   `query:"year_max"`
	Q       string `query:"q"`
}

type Review struct {
	ID         int       `json:"id" db:"id"`
	BookID     int       `json:"book_id" db:"book_id"`
	UserEmail  string    `json:"user_email" db:"user_email"`
	Rating     int       `json:"rating" db:"rating"`
	ReviewText string    `json:"review_text" db:"review_text"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type CreateReviewRequest struct {
	BookID     int    `json:"-" param:"id"`
	Rating     int    `json:"rating" form:"rating" validate:"required,min=1,max=5"`
	ReviewText string `json:"review_text" form:"review_text" validate:"required"`
	UserEmail  string `json:"user_email" form:"user_email" validate:"omitempty,email"`
}

type RatingSummary struct {
	BookID        int     `json:"book_id" db:"book_id"`
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	TotalRatings  int     `json:"total_ratings" db:"total_ratings"`
}

const LoanPeriod = 14 * 24 * time.Hour

type BorrowRecord struct {
	ID         int        `json:"id" db:"id"`
	BookID     int        `json:"book_id" db:"book_id"`
	UserEmail  string     `json:"user_email" db:"user_email"`
	BorrowedAt time.Time  `json:"borrowed_at" db:"borrowed_at"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReturnedAt *time.Time `json:"returned_at" db:"returned_at"`
}

func (b BorrowRecord) Active() bool {
	return b.ReturnedAt == nil
}

type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditTag    AuditAction = "tag"
)

type AuditLog struct {
	ID        int         `json:"id" db:"id"`
	BookID    int         `json:"book_id" db:"book_id"`
	Action    AuditAction `json:"action" db:"action"`
	UserEmail string      `json:"user_email" db:"user_email"`
	Timestamp time.Time   `json:"timestamp" db:"timestamp"`
	Details   string      `json:"details" db:"details"`
}

type NotificationKind string

const (
	NotificationDueSoon  NotificationKind = "due_soon"
	NotificationReturned NotificationKind = "returned"
)

type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserEmail string           `json:"user_email" db:"user_email"`
	BookID    *int             `json:"book_id" db:"book_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Message   string           `json:"message" db:"message"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	Read      bool             `json:"read" db:"read"`
}

type User struct {
	ID           int    `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
}

type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Password string `json:"password" form:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type UserHistory struct {
	Borrows []BorrowRecord `json:"borrows"`
	Reviews []Review       `json:"reviews"`
}

type BookCount struct {
	BookID int `db:"book_id"`
	Count  int `db:"cnt"`
}

type BookRating struct {
	BookID    int     `db:"book_id"`
	AvgRating float64 `db:"avg_rating"`
}

type UserBorrowCount struct {
	UserEmail   string `json:"user_email" db:"user_email"`
	BorrowCount int    `json:"borrow_count" db:"borrow_count"`
}
