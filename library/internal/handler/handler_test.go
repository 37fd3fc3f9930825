package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/handler"
	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/pkg/auth"

	service_mocks "github.com/Astemirdum/bookstore/library/internal/handler/mocks"
)

const (
	validToken = "valid-token"
	userEmail  = "reader@mail.com"
)

type stubTokens struct{}

func (stubTokens) ParseToken(token string) (*auth.Claims, error) {
	if token != validToken {
		return nil, errors.New("bad token")
	}
	c := &auth.Claims{}
	c.Subject = userEmail
	return c, nil
}

var day = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newRouter(t *testing.T) (*echo.Echo, *service_mocks.MockLibraryService, *service_mocks.MockImageStore) {
	t.Helper()
	c := gomock.NewController(t)
	svc := service_mocks.NewMockLibraryService(c)
	images := service_mocks.NewMockImageStore(c)
	h := handler.New(svc, images, stubTokens{}, zap.NewExample().Named("test"))
	return h.NewRouter(), svc, images
}

func do(e *echo.Echo, method, target string, body string, contentType string, token string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, http.NoBody)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		r.Header.Set(echo.HeaderContentType, contentType)
	}
	if token != "" {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, r)
	return w
}

func trim(w *httptest.ResponseRecorder) string {
	return strings.Trim(w.Body.String(), "\n")
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()
	e, _, _ := newRouter(t)
	for _, path := range []string{"/health", "/manage/health", "/health/"} {
		w := do(e, http.MethodGet, path, "", "", "")
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Equal(t, `{"status":"up"}`, trim(w))
	}
}

func TestHandler_Borrow(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *service_mocks.MockLibraryService)
	type response struct {
		expectedCode int
		expectedBody string
	}

	var tests = []struct {
		name         string
		target       string
		body         string
		token        string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name:   "ok. actor is the borrower",
			target: "/books/2/borrow",
			token:  validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Borrow(gomock.Any(), 2, userEmail).Return(model.BorrowRecord{
					ID: 1, BookID: 2, UserEmail: userEmail, BorrowedAt: day, DueDate: day.Add(model.LoanPeriod),
				}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":1,"book_id":2,"user_email":"reader@mail.com","borrowed_at":"2024-05-10T12:00:00Z","due_date":"2024-05-24T12:00:00Z","returned_at":null}`,
			},
		},
		{
			name:   "ok. form user_email, trailing slash",
			target: "/books/2/borrow/",
			body:   url.Values{"user_email": {"other@mail.com"}}.Encode(),
			token:  validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Borrow(gomock.Any(), 2, "other@mail.com").Return(model.BorrowRecord{
					ID: 1, BookID: 2, UserEmail: "other@mail.com", BorrowedAt: day, DueDate: day.Add(model.LoanPeriod),
				}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":1,"book_id":2,"user_email":"other@mail.com","borrowed_at":"2024-05-10T12:00:00Z","due_date":"2024-05-24T12:00:00Z","returned_at":null}`,
			},
		},
		{
			name:   "err. already borrowed",
			target: "/books/2/borrow",
			token:  validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Borrow(gomock.Any(), 2, userEmail).Return(model.BorrowRecord{}, errs.ErrAlreadyBorrowed)
			},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"book already borrowed"}`,
			},
		},
		{
			name:   "err. book not found",
			target: "/books/9/borrow",
			token:  validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Borrow(gomock.Any(), 9, userEmail).Return(model.BorrowRecord{}, errs.ErrBookNotFound)
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"book not found"}`,
			},
		},
		{
			name:   "err. internal is sanitized",
			target: "/books/2/borrow",
			token:  validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().Borrow(gomock.Any(), 2, userEmail).Return(model.BorrowRecord{}, errors.New("pq: password authentication failed"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"Internal Server Error"}`,
			},
		},
		{
			name:         "err. bad id",
			target:       "/books/abc/borrow",
			token:        validToken,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
				expectedBody: `{"message":"invalid book id"}`,
			},
		},
		{
			name:         "err. no token",
			target:       "/books/2/borrow",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"No Authorization Header"}`,
			},
		},
		{
			name:         "err. bad token",
			target:       "/books/2/borrow",
			token:        "forged",
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"JwtAccessDenied"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, svc, _ := newRouter(t)
			tt.mockBehavior(svc)

			ct := ""
			if tt.body != "" {
				ct = echo.MIMEApplicationForm
			}
			w := do(e, http.MethodPost, tt.target, tt.body, ct, tt.token)

			require.Equal(t, tt.response.expectedCode, w.Code)
			require.Equal(t, tt.response.expectedBody, trim(w))
		})
	}
}

func TestHandler_AddReview(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().
			AddReview(gomock.Any(), model.CreateReviewRequest{BookID: 3, Rating: 5, ReviewText: "great", UserEmail: userEmail}).
			Return(model.Review{ID: 1, BookID: 3, UserEmail: userEmail, Rating: 5, ReviewText: "great", CreatedAt: day}, nil)

		body := url.Values{"rating": {"5"}, "review_text": {"great"}}.Encode()
		w := do(e, http.MethodPost, "/books/3/reviews", body, echo.MIMEApplicationForm, validToken)

		require.Equal(t, http.StatusCreated, w.Code)
		require.Equal(t, `{"id":1,"book_id":3,"user_email":"reader@mail.com","rating":5,"review_text":"great","created_at":"2024-05-10T12:00:00Z"}`, trim(w))
	})

	for _, rating := range []string{"0", "6", "-1"} {
		rating := rating
		t.Run("err. rating "+rating, func(t *testing.T) {
			t.Parallel()
			e, _, _ := newRouter(t)
			body := `{"rating":` + rating + `,"review_text":"meh"}`
			w := do(e, http.MethodPost, "/books/3/reviews", body, echo.MIMEApplicationJSON, validToken)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandler_Recommendations(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().Recommend(gomock.Any(), "u1@mail.com", 5).
			Return([]model.Book{{ID: 4, Name: "Dune", Author: "Herbert", PublishedYear: 1965, BookSummary: "spice", Tags: model.Tags{"sci-fi"}}}, nil)

		w := do(e, http.MethodGet, "/books/recommendations/?user_email=u1@mail.com", "", "", validToken)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `[{"id":4,"name":"Dune","author":"Herbert","published_year":1965,"book_summary":"spice","cover_image_url":null,"tags":["sci-fi"]}]`, trim(w))
	})

	t.Run("empty list", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().Recommend(gomock.Any(), userEmail, 10).Return([]model.Book{}, nil)

		w := do(e, http.MethodGet, "/books/recommendations?limit=10", "", "", validToken)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, `[]`, trim(w))
	})

	for _, limit := range []string{"0", "51", "x"} {
		limit := limit
		t.Run("err. limit "+limit, func(t *testing.T) {
			t.Parallel()
			e, _, _ := newRouter(t)
			w := do(e, http.MethodGet, "/books/recommendations?limit="+limit, "", "", validToken)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, `{"message":"limit must be between 1 and 50"}`, trim(w))
		})
	}
}

func TestHandler_ListBooks(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	yearMin, yearMax := 1900, 2000
	svc.EXPECT().
		ListBooks(gomock.Any(), model.BookFilter{Author: "tolk", YearMin: &yearMin, YearMax: &yearMax, Q: "ring"}).
		Return([]model.Book{}, nil)

	w := do(e, http.MethodGet, "/books?author=tolk&year_min=1900&year_max=2000&q=ring", "", "", validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `[]`, trim(w))

	w = do(e, http.MethodGet, "/books?year_min=old", "", "", validToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"year_min is invalid"}`, trim(w))
}

func TestHandler_UpdateBook(t *testing.T) {
	t.Parallel()
	name := "The Hobbit"
	year := 1937

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().
			UpdateBook(gomock.Any(), 1, model.UpdateBookRequest{Name: &name, PublishedYear: &year}, userEmail).
			Return(model.Book{ID: 1, Name: name, PublishedYear: year}, nil)

		w := do(e, http.MethodPut, "/books/1", `{"name":"The Hobbit","published_year":1937}`, echo.MIMEApplicationJSON, validToken)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("form", func(t *testing.T) {
		t.Parallel()
		e, svc, _ := newRouter(t)
		svc.EXPECT().
			UpdateBook(gomock.Any(), 1, model.UpdateBookRequest{Name: &name, PublishedYear: &year}, userEmail).
			Return(model.Book{ID: 1, Name: name, PublishedYear: year}, nil)

		body := url.Values{"name": {name}, "published_year": {"1937"}}.Encode()
		w := do(e, http.MethodPut, "/books/1", body, echo.MIMEApplicationForm, validToken)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandler_DeleteBook(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	gomock.InOrder(
		svc.EXPECT().DeleteBook(gomock.Any(), 1, userEmail).Return(nil),
		svc.EXPECT().DeleteBook(gomock.Any(), 2, userEmail).Return(errs.ErrActiveBorrow),
	)

	w := do(e, http.MethodDelete, "/books/1", "", "", validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"message":"Book deleted successfully"}`, trim(w))

	w = do(e, http.MethodDelete, "/books/2", "", "", validToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"book has an active borrow"}`, trim(w))
}

func TestHandler_CreateBookWithCover(t *testing.T) {
	t.Parallel()
	e, svc, images := newRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"name":           "Dune",
		"author":         "Frank Herbert",
		"published_year": "1965",
		"book_summary":   "spice",
		"tags":           "sci-fi, classic",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("cover_image", "dune.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	ref := "/books/images/abc.png"
	images.EXPECT().Store("dune.png", gomock.Any()).Return(ref, nil)
	svc.EXPECT().
		CreateBook(gomock.Any(), model.CreateBookRequest{
			Name: "Dune", Author: "Frank Herbert", PublishedYear: 1965, BookSummary: "spice",
			Tags: "sci-fi, classic", CoverImageURL: &ref,
		}, userEmail).
		Return(model.Book{ID: 1, Name: "Dune", CoverImageURL: &ref, Tags: model.Tags{"sci-fi", "classic"}}, nil)

	w := do(e, http.MethodPost, "/books", body.String(), mw.FormDataContentType(), validToken)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, trim(w), `"cover_image_url":"/books/images/abc.png"`)
}

func TestHandler_CreateBookRemovesCoverOnFailure(t *testing.T) {
	t.Parallel()
	e, svc, images := newRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"name":           "Dune",
		"author":         "Frank Herbert",
		"published_year": "1965",
		"book_summary":   "spice",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("cover_image", "dune.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	ref := "/books/images/def.jpg"
	gomock.InOrder(
		images.EXPECT().Store("dune.jpg", gomock.Any()).Return(ref, nil),
		svc.EXPECT().CreateBook(gomock.Any(), gomock.Any(), userEmail).Return(model.Book{}, errors.New("db down")),
		images.EXPECT().Remove(ref).Return(nil),
	)

	w := do(e, http.MethodPost, "/books", body.String(), mw.FormDataContentType(), validToken)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandler_CreateBookValidation(t *testing.T) {
	t.Parallel()
	e, _, _ := newRouter(t)
	w := do(e, http.MethodPost, "/books", `{"name":"Dune"}`, echo.MIMEApplicationJSON, validToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_GetImage(t *testing.T) {
	t.Parallel()
	e, _, images := newRouter(t)
	images.EXPECT().Path("missing.png").Return("", errs.ErrImageNotFound)

	w := do(e, http.MethodGet, "/books/images/missing.png", "", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, `{"message":"image not found"}`, trim(w))
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	gomock.InOrder(
		svc.EXPECT().Login(gomock.Any(), model.Credentials{Email: "a@mail.com", Password: "pw"}).
			Return(model.AuthResponse{AccessToken: "tok", TokenType: "bearer", ExpiresIn: 1800}, nil),
		svc.EXPECT().Login(gomock.Any(), model.Credentials{Email: "a@mail.com", Password: "bad"}).
			Return(model.AuthResponse{}, errs.ErrInvalidCredentials),
	)

	w := do(e, http.MethodPost, "/login", `{"email":"a@mail.com","password":"pw"}`, echo.MIMEApplicationJSON, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"access_token":"tok","token_type":"bearer","expires_in":1800}`, trim(w))

	w = do(e, http.MethodPost, "/login", `{"email":"a@mail.com","password":"bad"}`, echo.MIMEApplicationJSON, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"incorrect email or password"}`, trim(w))
}

func TestHandler_Signup(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	svc.EXPECT().Signup(gomock.Any(), model.Credentials{Email: "a@mail.com", Password: "pw"}).
		Return(model.User{}, errs.ErrEmailTaken)

	body := url.Values{"email": {"a@mail.com"}, "password": {"pw"}}.Encode()
	w := do(e, http.MethodPost, "/signup", body, echo.MIMEApplicationForm, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, `{"message":"email already registered"}`, trim(w))
}

func TestHandler_UpdateProfile(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	svc.EXPECT().UpdateProfile(gomock.Any(), userEmail, model.UpdateProfileRequest{Password: "new"}).
		Return(model.User{ID: 1, Email: userEmail, PasswordHash: "$2a$10$hash"}, nil)

	w := do(e, http.MethodPut, "/users/"+userEmail+"/profile", `{"password":"new"}`, echo.MIMEApplicationJSON, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"id":1,"email":"reader@mail.com"}`, trim(w))

	w = do(e, http.MethodPut, "/users/someone@mail.com/profile", `{"password":"new"}`, echo.MIMEApplicationJSON, validToken)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_MarkNotificationRead(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	gomock.InOrder(
		svc.EXPECT().MarkNotificationRead(gomock.Any(), 7).Return(nil),
		svc.EXPECT().MarkNotificationRead(gomock.Any(), 8).Return(errs.ErrNotificationNotFound),
	)

	w := do(e, http.MethodPost, "/notifications/mark_read?notification_id=7", "", "", validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `{"success":true}`, trim(w))

	w = do(e, http.MethodPost, "/notifications/mark_read?notification_id=8", "", "", validToken)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, `{"message":"notification not found"}`, trim(w))
}

func TestHandler_ActiveUsers(t *testing.T) {
	t.Parallel()
	e, svc, _ := newRouter(t)
	svc.EXPECT().ActiveUsers(gomock.Any()).
		Return([]model.UserBorrowCount{{UserEmail: "a@mail.com", BorrowCount: 3}}, nil)

	w := do(e, http.MethodGet, "/analytics/active_users", "", "", validToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, `[{"user_email":"a@mail.com","borrow_count":3}]`, trim(w))
}
