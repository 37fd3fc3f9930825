package errs

import (
	"errors"
)

// Kinds. Handlers map them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid input")
)

var (
	ErrBookNotFound         = newErr(ErrNotFound, "book not found")
	ErrUserNotFound         = newErr(ErrNotFound, "user not found")
	ErrNotificationNotFound = newErr(ErrNotFound, "notification not found")
	ErrNoActiveBorrow       = newErr(ErrNotFound, "no active borrow record found for this user and book")
	ErrImageNotFound        = newErr(ErrNotFound, "image not found")

	ErrAlreadyBorrowed = newErr(ErrConflict, "book already borrowed")
	ErrActiveBorrow    = newErr(ErrConflict, "book has an active borrow")
	ErrEmailTaken      = newErr(ErrConflict, "email already registered")

	ErrInvalidCredentials = newErr(ErrUnauthorized, "incorrect email or password")

	ErrImageTooLarge    = newErr(ErrInvalid, "image upload failed: file too large")
	ErrUnsupportedImage = newErr(ErrInvalid, "image upload failed: unsupported file type")
)

type kindError struct {
	kind error
	msg  string
}

func newErr(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }
