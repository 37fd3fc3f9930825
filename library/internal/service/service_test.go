package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
	repo_mocks "github.com/Astemirdum/bookstore/library/internal/repository/mocks"
	"github.com/Astemirdum/bookstore/pkg/auth"
	"github.com/Astemirdum/bookstore/pkg/kafka"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]kafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.events == nil {
		p.events = make(map[string][]kafka.Event)
	}
	p.events[topic] = append(p.events[topic], event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *repo_mocks.MockRepository, *recordingPublisher) {
	t.Helper()
	c := gomock.NewController(t)
	repo := repo_mocks.NewMockRepository(c)
	pub := &recordingPublisher{}
	issuer := auth.NewIssuer(auth.Config{Secret: "test-secret", TTL: 30 * time.Minute})
	svc := NewService(repo, pub, issuer, zap.NewExample().Named("test"))
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, pub
}

func book(id int) model.Book {
	return model.Book{ID: id, Name: "book", Author: "author", PublishedYear: 2000, BookSummary: "summary"}
}

func booksByID(ids ...int) map[int]model.Book {
	m := make(map[int]model.Book, len(ids))
	for _, id := range ids {
		m[id] = book(id)
	}
	return m
}

func ids(books []model.Book) []int {
	out := make([]int, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func loan(bookID int, email string, returned bool) model.BorrowRecord {
	rec := model.BorrowRecord{BookID: bookID, UserEmail: email, BorrowedAt: fixedNow, DueDate: fixedNow.Add(model.LoanPeriod)}
	if returned {
		back := fixedNow.Add(time.Hour)
		rec.ReturnedAt = &back
	}
	return rec
}

func TestService_Recommend(t *testing.T) {
	t.Parallel()
	type mockBehavior func(r *repo_mocks.MockRepository)

	tests := []struct {
		name         string
		email        string
		limit        int
		mockBehavior mockBehavior
		wantIDs      []int
		wantErr      bool
	}{
		{
			name:  "popularity skips dangling ids and honours limit",
			email: "new@mail.com",
			limit: 2,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ListBorrows(gomock.Any()).Return([]model.BorrowRecord{
					loan(3, "a@mail.com", true),
					loan(3, "b@mail.com", true),
					loan(3, "c@mail.com", true),
					loan(1, "a@mail.com", true),
					loan(1, "b@mail.com", true),
					loan(2, "a@mail.com", true),
				}, nil)
				r.EXPECT().GetBooksByIDs(gomock.Any(), []int{3, 1, 2}).Return(booksByID(1, 2), nil)
			},
			wantIDs: []int{1, 2},
		},
		{
			name:  "collaborative",
			email: "u1@mail.com",
			limit: 0,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ListBorrows(gomock.Any()).Return([]model.BorrowRecord{
					loan(1, "u1@mail.com", true),
					loan(2, "u1@mail.com", true),
					loan(1, "u2@mail.com", true),
					loan(2, "u2@mail.com", true),
					loan(3, "u2@mail.com", true),
				}, nil)
				r.EXPECT().GetBooksByIDs(gomock.Any(), []int{3}).Return(booksByID(3), nil)
			},
			wantIDs: []int{3},
		},
		{
			name:  "no similar users",
			email: "u1@mail.com",
			limit: 5,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ListBorrows(gomock.Any()).Return([]model.BorrowRecord{
					loan(1, "u1@mail.com", true),
					loan(2, "u2@mail.com", true),
				}, nil)
			},
			wantIDs: []int{},
		},
		{
			name:  "ledger error",
			email: "u1@mail.com",
			limit: 5,
			mockBehavior: func(r *repo_mocks.MockRepository) {
				r.EXPECT().ListBorrows(gomock.Any()).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, _ := newTestService(t)
			tt.mockBehavior(repo)

			books, err := svc.Recommend(context.Background(), tt.email, tt.limit)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantIDs, ids(books))
		})
	}
}

func TestService_Analytics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("most borrowed keeps rank order without dangling", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newTestService(t)
		repo.EXPECT().MostBorrowed(ctx, AnalyticsLimit).Return([]model.BookCount{
			{BookID: 7, Count: 4}, {BookID: 2, Count: 3}, {BookID: 9, Count: 3}, {BookID: 4, Count: 1},
		}, nil)
		repo.EXPECT().GetBooksByIDs(ctx, []int{7, 2, 9, 4}).Return(booksByID(7, 9, 4), nil)

		books, err := svc.MostBorrowed(ctx)
		require.NoError(t, err)
		require.Equal(t, []int{7, 9, 4}, ids(books))
	})

	t.Run("top rated with no reviews", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newTestService(t)
		repo.EXPECT().TopRated(ctx, AnalyticsLimit).Return([]model.BookRating{}, nil)

		books, err := svc.TopRated(ctx)
		require.NoError(t, err)
		require.Empty(t, books)
	})

	t.Run("active users passthrough", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newTestService(t)
		want := []model.UserBorrowCount{{UserEmail: "a@mail.com", BorrowCount: 3}}
		repo.EXPECT().ActiveUsers(ctx, AnalyticsLimit).Return(want, nil)

		got, err := svc.ActiveUsers(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)

	tests := []struct {
		name    string
		cred    model.Credentials
		user    model.User
		repoErr error
		wantErr error
	}{
		{
			name: "ok",
			cred: model.Credentials{Email: "a@mail.com", Password: "secret"},
			user: model.User{ID: 1, Email: "a@mail.com", PasswordHash: hash},
		},
		{
			name:    "wrong password",
			cred:    model.Credentials{Email: "a@mail.com", Password: "nope"},
			user:    model.User{ID: 1, Email: "a@mail.com", PasswordHash: hash},
			wantErr: errs.ErrInvalidCredentials,
		},
		{
			name:    "unknown user",
			cred:    model.Credentials{Email: "b@mail.com", Password: "secret"},
			repoErr: errs.ErrUserNotFound,
			wantErr: errs.ErrInvalidCredentials,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, repo, _ := newTestService(t)
			repo.EXPECT().GetUser(gomock.Any(), tt.cred.Email).Return(tt.user, tt.repoErr)

			resp, err := svc.Login(context.Background(), tt.cred)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, err, errs.ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "bearer", resp.TokenType)
			require.NotEmpty(t, resp.AccessToken)
			require.Greater(t, resp.ExpiresIn, 0)
		})
	}
}

func TestService_UpdateProfileHashesPassword(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService(t)
	repo.EXPECT().
		UpdatePassword(gomock.Any(), "a@mail.com", gomock.Any()).
		DoAndReturn(func(_ context.Context, email, hash string) (model.User, error) {
			require.NotEqual(t, "new-pass", hash)
			require.True(t, auth.VerifyPassword(hash, "new-pass"))
			return model.User{ID: 1, Email: email, PasswordHash: hash}, nil
		})

	user, err := svc.UpdateProfile(context.Background(), "a@mail.com", model.UpdateProfileRequest{Password: "new-pass"})
	require.NoError(t, err)
	require.Equal(t, "a@mail.com", user.Email)
}

func TestService_Signup(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService(t)
	repo.EXPECT().
		CreateUser(gomock.Any(), "a@mail.com", gomock.Any()).
		Return(model.User{}, errs.ErrEmailTaken)

	_, err := svc.Signup(context.Background(), model.Credentials{Email: "a@mail.com", Password: "x"})
	require.ErrorIs(t, err, errs.ErrConflict)
}

func TestService_Return(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("emits returned notification", func(t *testing.T) {
		t.Parallel()
		svc, repo, pub := newTestService(t)
		rec := loan(5, "a@mail.com", true)
		repo.EXPECT().Return(ctx, 5, "a@mail.com", fixedNow).Return(rec, nil)
		repo.EXPECT().
			CreateNotification(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, n model.Notification) (model.Notification, error) {
				require.Equal(t, model.NotificationReturned, n.Kind)
				require.Equal(t, 5, *n.BookID)
				n.ID = 1
				return n, nil
			})

		got, err := svc.Return(ctx, 5, "a@mail.com")
		require.NoError(t, err)
		require.Equal(t, rec, got)
		require.Len(t, pub.events[kafka.NotificationTopic], 1)
		require.Equal(t, "returned", pub.events[kafka.NotificationTopic][0].Kind)
	})

	t.Run("no active borrow", func(t *testing.T) {
		t.Parallel()
		svc, repo, pub := newTestService(t)
		repo.EXPECT().Return(ctx, 5, "a@mail.com", fixedNow).Return(model.BorrowRecord{}, errs.ErrNoActiveBorrow)

		_, err := svc.Return(ctx, 5, "a@mail.com")
		require.ErrorIs(t, err, errs.ErrNotFound)
		require.Empty(t, pub.events)
	})

	t.Run("notification failure does not fail the return", func(t *testing.T) {
		t.Parallel()
		svc, repo, _ := newTestService(t)
		rec := loan(5, "a@mail.com", true)
		repo.EXPECT().Return(ctx, 5, "a@mail.com", fixedNow).Return(rec, nil)
		repo.EXPECT().CreateNotification(ctx, gomock.Any()).Return(model.Notification{}, errors.New("db down"))

		_, err := svc.Return(ctx, 5, "a@mail.com")
		require.NoError(t, err)
	})
}

func TestService_CatalogPublishesAudit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	pub.err = errors.New("broker down")

	req := model.CreateBookRequest{Name: "Dune", Author: "Herbert", PublishedYear: 1965, BookSummary: "spice"}
	repo.EXPECT().CreateBook(ctx, req, "admin@mail.com").Return(model.Book{ID: 1, Name: "Dune"}, nil)
	repo.EXPECT().SetTags(ctx, 1, model.Tags{"sci-fi", "classic"}, "admin@mail.com").
		Return(model.Book{ID: 1, Name: "Dune", Tags: model.Tags{"sci-fi", "classic"}}, nil)
	repo.EXPECT().DeleteBook(ctx, 1, "admin@mail.com").Return(nil)

	_, err := svc.CreateBook(ctx, req, "admin@mail.com")
	require.NoError(t, err)
	b, err := svc.SetTags(ctx, 1, " sci-fi, ,classic ", "admin@mail.com")
	require.NoError(t, err)
	require.Equal(t, model.Tags{"sci-fi", "classic"}, b.Tags)
	require.NoError(t, svc.DeleteBook(ctx, 1, "admin@mail.com"))

	events := pub.events[kafka.AuditTopic]
	require.Len(t, events, 3)
	require.Equal(t, []string{"create", "tag", "delete"}, []string{events[0].Kind, events[1].Kind, events[2].Kind})
}

func TestService_UpdateBookEmpty(t *testing.T) {
	t.Parallel()
	svc, repo, pub := newTestService(t)
	repo.EXPECT().GetBook(gomock.Any(), 3).Return(book(3), nil)

	got, err := svc.UpdateBook(context.Background(), 3, model.UpdateBookRequest{}, "a@mail.com")
	require.NoError(t, err)
	require.Equal(t, book(3), got)
	require.Empty(t, pub.events)
}

func TestService_UserHistory(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestService(t)
	borrows := []model.BorrowRecord{loan(1, "a@mail.com", false)}
	reviews := []model.Review{{ID: 1, BookID: 1, UserEmail: "a@mail.com", Rating: 4, ReviewText: "ok"}}
	repo.EXPECT().ListUserBorrows(gomock.Any(), "a@mail.com").Return(borrows, nil)
	repo.EXPECT().ListUserReviews(gomock.Any(), "a@mail.com").Return(reviews, nil)

	h, err := svc.UserHistory(context.Background(), "a@mail.com")
	require.NoError(t, err)
	require.Equal(t, model.UserHistory{Borrows: borrows, Reviews: reviews}, h)
}
