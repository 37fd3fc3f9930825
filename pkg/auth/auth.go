package auth

import (
	"context"

	"github.com/pkg/errors"
)

type ctxKey struct{}

var ErrNoUser = errors.New("user email is not in context")

func SetAuthContext(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKey{}, email)
}

func GetUserEmail(ctx context.Context) (string, error) {
	email, ok := ctx.Value(ctxKey{}).(string)
	if !ok || email == "" {
		return "", ErrNoUser
	}
	return email, nil
}
