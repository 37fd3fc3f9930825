package errs_test

import (
	"fmt"
	"testing"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	t.Parallel()
	wrapped := fmt.Errorf("borrow: %w", errs.ErrAlreadyBorrowed)

	require.ErrorIs(t, wrapped, errs.ErrConflict)
	require.ErrorIs(t, wrapped, errs.ErrAlreadyBorrowed)
	require.NotErrorIs(t, wrapped, errs.ErrNotFound)
	require.Equal(t, "book already borrowed", errs.ErrAlreadyBorrowed.Error())

	require.ErrorIs(t, errors.Wrap(errs.ErrBookNotFound, "GetBook"), errs.ErrNotFound)
	require.ErrorIs(t, errs.ErrInvalidCredentials, errs.ErrUnauthorized)
}
