package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Astemirdum/bookstore/pkg/auth"
	md "github.com/Astemirdum/bookstore/pkg/middleware"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func TestJwtAuthentication(t *testing.T) {
	t.Parallel()
	iss := auth.NewIssuer(auth.Config{Secret: "secret", TTL: time.Minute})
	token, _, err := iss.CreateToken("reader@mail.com")
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectedCode int
		expectedBody string
	}{
		{name: "ok", header: "Bearer " + token, expectedCode: http.StatusOK, expectedBody: "reader@mail.com"},
		{name: "no header", header: "", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"No Authorization Header"}` + "\n"},
		{name: "not bearer", header: "Basic abc", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"Invalid Authorization Header"}` + "\n"},
		{name: "bad token", header: "Bearer abc", expectedCode: http.StatusUnauthorized, expectedBody: `{"message":"JwtAccessDenied"}` + "\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := echo.New()
			e.GET("/me", func(c echo.Context) error {
				email, err := auth.GetUserEmail(c.Request().Context())
				if err != nil {
					return err
				}
				return c.String(http.StatusOK, email)
			}, md.JwtAuthentication(iss))

			r := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				r.Header.Set(md.AuthorizationHeader, tt.header)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, r)

			require.Equal(t, tt.expectedCode, w.Code)
			require.Equal(t, tt.expectedBody, w.Body.String())
		})
	}
}
