package service

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/pkg/auth"
)

const tokenType = "bearer"

func (s *Service) Signup(ctx context.Context, cred model.Credentials) (model.User, error) {
	hash, err := auth.HashPassword(cred.Password)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	return s.repo.CreateUser(ctx, cred.Email, hash)
}

func (s *Service) Login(ctx context.Context, cred model.Credentials) (model.AuthResponse, error) {
	user, err := s.repo.GetUser(ctx, cred.Email)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.AuthResponse{}, errs.ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}
	if !auth.VerifyPassword(user.PasswordHash, cred.Password) {
		return model.AuthResponse{}, errs.ErrInvalidCredentials
	}
	token, expiresAt, err := s.issuer.CreateToken(user.Email)
	if err != nil {
		return model.AuthResponse{}, err
	}
	return model.AuthResponse{
		AccessToken: token,
		TokenType:   tokenType,
		ExpiresIn:   int(expiresAt.Sub(s.now()).Seconds()),
	}, nil
}

func (s *Service) Profile(ctx context.Context, email string) (model.User, error) {
	return s.repo.GetUser(ctx, email)
}

// UpdateProfile stores the new password hashed, same as Signup.
func (s *Service) UpdateProfile(ctx context.Context, email string, req model.UpdateProfileRequest) (model.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}
	return s.repo.UpdatePassword(ctx, email, hash)
}

func (s *Service) UserHistory(ctx context.Context, email string) (model.UserHistory, error) {
	var history model.UserHistory
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		borrows, err := s.repo.ListUserBorrows(gCtx, email)
		history.Borrows = borrows
		return err
	})
	g.Go(func() error {
		reviews, err := s.repo.ListUserReviews(gCtx, email)
		history.Reviews = reviews
		return err
	})
	if err := g.Wait(); err != nil {
		return model.UserHistory{}, err
	}
	return history, nil
}
