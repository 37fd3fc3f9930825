package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/config"
	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/pkg/kafka"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// memStore mirrors the partial unique index on unread due_soon rows.
type memStore struct {
	mu            sync.Mutex
	borrows       []model.BorrowRecord
	notifications []model.Notification
	failBook      map[int]error
	dueErr        error
	sweeps        int
}

func (m *memStore) DueBorrows(_ context.Context, dueBefore time.Time) ([]model.BorrowRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps++
	if m.dueErr != nil {
		return nil, m.dueErr
	}
	var out []model.BorrowRecord
	for _, b := range m.borrows {
		if b.Active() && !b.DueDate.After(dueBefore) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) CreateDueNotification(_ context.Context, n model.Notification) (model.Notification, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failBook[*n.BookID]; err != nil {
		return model.Notification{}, false, err
	}
	for _, ex := range m.notifications {
		if !ex.Read && ex.UserEmail == n.UserEmail && *ex.BookID == *n.BookID && ex.Kind == n.Kind {
			return model.Notification{}, false, nil
		}
	}
	n.ID = len(m.notifications) + 1
	m.notifications = append(m.notifications, n)
	return n, true, nil
}

func (m *memStore) markRead(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[id-1].Read = true
}

func (m *memStore) sweepCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweeps
}

type countingPublisher struct {
	mu    sync.Mutex
	count int
}

func (p *countingPublisher) Publish(context.Context, string, kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func newSweeper(store Store, pub kafka.Publisher, cfg config.Sweeper) *Sweeper {
	s := New(store, pub, cfg, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func loan(id, bookID int, email string, due time.Duration, returned bool) model.BorrowRecord {
	b := model.BorrowRecord{
		ID:         id,
		BookID:     bookID,
		UserEmail:  email,
		BorrowedAt: now.Add(-model.LoanPeriod),
		DueDate:    now.Add(due),
	}
	if returned {
		t := now
		b.ReturnedAt = &t
	}
	return b
}

func TestSweep_DedupAndRearm(t *testing.T) {
	t.Parallel()
	store := &memStore{borrows: []model.BorrowRecord{
		loan(1, 10, "a@mail.com", 12*time.Hour, false),
	}}
	pub := &countingPublisher{}
	s := newSweeper(store, pub, config.Sweeper{Window: 24 * time.Hour})
	ctx := context.Background()

	created, err := s.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	created, err = s.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, created)
	require.Len(t, store.notifications, 1)

	store.markRead(1)
	created, err = s.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, created)
	require.Len(t, store.notifications, 2)
	require.Equal(t, 2, pub.count)

	n := store.notifications[1]
	require.Equal(t, model.NotificationDueSoon, n.Kind)
	require.Equal(t, "a@mail.com", n.UserEmail)
	require.Equal(t, 10, *n.BookID)
	require.False(t, n.Read)
}

func TestSweep_Selection(t *testing.T) {
	t.Parallel()
	store := &memStore{borrows: []model.BorrowRecord{
		loan(1, 1, "a@mail.com", 23*time.Hour, false),
		loan(2, 2, "a@mail.com", 72*time.Hour, false),
		loan(3, 3, "b@mail.com", 2*time.Hour, true),
		loan(4, 4, "b@mail.com", -48*time.Hour, false),
		// ids 1 and 11 must not shadow each other
		loan(5, 11, "a@mail.com", time.Hour, false),
	}}
	s := newSweeper(store, &countingPublisher{}, config.Sweeper{Window: 24 * time.Hour})

	created, err := s.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, created)

	var books []int
	for _, n := range store.notifications {
		books = append(books, *n.BookID)
	}
	require.ElementsMatch(t, []int{1, 4, 11}, books)
}

func TestSweep_FailureIsolation(t *testing.T) {
	t.Parallel()
	store := &memStore{
		borrows: []model.BorrowRecord{
			loan(1, 1, "a@mail.com", time.Hour, false),
			loan(2, 2, "b@mail.com", time.Hour, false),
			loan(3, 3, "c@mail.com", time.Hour, false),
		},
		failBook: map[int]error{2: errors.New("connection reset")},
	}
	s := newSweeper(store, &countingPublisher{}, config.Sweeper{})

	created, err := s.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, created)
	require.Len(t, store.notifications, 2)
}

func TestSweep_StoreError(t *testing.T) {
	t.Parallel()
	store := &memStore{dueErr: errors.New("db down")}
	s := newSweeper(store, &countingPublisher{}, config.Sweeper{})

	created, err := s.Sweep(context.Background())
	require.Error(t, err)
	require.Zero(t, created)
}

func TestSweeper_Serve(t *testing.T) {
	t.Parallel()
	store := &memStore{}
	s := newSweeper(store, kafka.NopPublisher{}, config.Sweeper{
		InitialDelay: 5 * time.Millisecond,
		Interval:     10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	require.Eventually(t, func() bool { return store.sweepCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.Equal(t, "notification-sweeper", s.String())
}
