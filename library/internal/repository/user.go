package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
)

func (r *repository) CreateUser(ctx context.Context, email, passwordHash string) (model.User, error) {
	q := fmt.Sprintf(`insert into %s (email, password_hash) values (@email, @password_hash)
	returning id, email, password_hash`, usersTableName)
	user, err := collectOne[model.User](ctx, r.db, q, pgx.NamedArgs{
		"email":         email,
		"password_hash": passwordHash,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, errs.ErrEmailTaken
		}
		return model.User{}, errors.Wrap(err, "CreateUser")
	}
	return user, nil
}

func (r *repository) GetUser(ctx context.Context, email string) (model.User, error) {
	q := fmt.Sprintf(`select id, email, password_hash from %s where email = $1`, usersTableName)
	user, err := collectOne[model.User](ctx, r.db, q, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, errors.Wrap(err, "GetUser")
	}
	return user, nil
}

func (r *repository) UpdatePassword(ctx context.Context, email, passwordHash string) (model.User, error) {
	q := fmt.Sprintf(`update %s set password_hash = @password_hash where email = @email
	returning id, email, password_hash`, usersTableName)
	user, err := collectOne[model.User](ctx, r.db, q, pgx.NamedArgs{
		"email":         email,
		"password_hash": passwordHash,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, errs.ErrUserNotFound
		}
		return model.User{}, errors.Wrap(err, "UpdatePassword")
	}
	return user, nil
}
