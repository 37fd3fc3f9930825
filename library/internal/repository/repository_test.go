package repository

import (
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	mock_repository "github.com/Astemirdum/bookstore/library/internal/repository/mocks"
)

var _ Repository = (*mock_repository.MockRepository)(nil)

func TestContains(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{in: "dune", want: "%dune%"},
		{in: "100%", want: `%100\%%`},
		{in: "a_b", want: `%a\_b%`},
		{in: `c:\`, want: `%c:\\%`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, contains(tt.in))
		})
	}
}

func TestPgErrorCodes(t *testing.T) {
	t.Parallel()
	unique := errors.Wrap(&pgconn.PgError{Code: pgerrcode.UniqueViolation}, "insert")
	fk := errors.Wrap(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, "insert")

	require.True(t, isUniqueViolation(unique))
	require.False(t, isUniqueViolation(fk))
	require.True(t, isForeignKeyViolation(fk))
	require.False(t, isForeignKeyViolation(unique))
	require.False(t, isUniqueViolation(errors.New("boom")))
}
