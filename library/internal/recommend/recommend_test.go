package recommend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookstore/library/internal/model"
	"github.com/Astemirdum/bookstore/library/internal/recommend"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func returned(id, bookID int, email string) model.BorrowRecord {
	back := t0.Add(48 * time.Hour)
	return model.BorrowRecord{
		ID:         id,
		BookID:     bookID,
		UserEmail:  email,
		BorrowedAt: t0,
		DueDate:    t0.Add(model.LoanPeriod),
		ReturnedAt: &back,
	}
}

func active(id, bookID int, email string) model.BorrowRecord {
	return model.BorrowRecord{
		ID:         id,
		BookID:     bookID,
		UserEmail:  email,
		BorrowedAt: t0,
		DueDate:    t0.Add(model.LoanPeriod),
	}
}

func TestIndex_Recommend(t *testing.T) {
	t.Parallel()
	const (
		a = iota + 1
		b
		c
		d
		e
		f
	)
	tests := []struct {
		name       string
		records    []model.BorrowRecord
		email      string
		wantIDs    []int
		wantSource recommend.Source
	}{
		{
			name:       "empty ledger",
			records:    nil,
			email:      "u1@mail.com",
			wantIDs:    []int{},
			wantSource: recommend.SourcePopular,
		},
		{
			name: "no completed borrows falls back to popularity with id tie-break",
			records: []model.BorrowRecord{
				returned(1, c, "x@mail.com"),
				returned(2, c, "y@mail.com"),
				returned(3, b, "x@mail.com"),
				returned(4, a, "y@mail.com"),
				active(5, d, "u1@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{c, a, b, d},
			wantSource: recommend.SourcePopular,
		},
		{
			name: "co-borrowed book is recommended",
			records: []model.BorrowRecord{
				returned(1, a, "u1@mail.com"),
				returned(2, b, "u1@mail.com"),
				returned(3, a, "u2@mail.com"),
				returned(4, b, "u2@mail.com"),
				returned(5, c, "u2@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{c},
			wantSource: recommend.SourceCollaborative,
		},
		{
			name: "history is excluded even when active",
			records: []model.BorrowRecord{
				returned(1, a, "u1@mail.com"),
				active(2, c, "u1@mail.com"),
				returned(3, a, "u2@mail.com"),
				returned(4, c, "u2@mail.com"),
				returned(5, d, "u2@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{d},
			wantSource: recommend.SourceCollaborative,
		},
		{
			name: "no similar users gives empty result",
			records: []model.BorrowRecord{
				returned(1, a, "u1@mail.com"),
				returned(2, b, "u2@mail.com"),
				returned(3, c, "u2@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{},
			wantSource: recommend.SourceCollaborative,
		},
		{
			name: "no candidates gives empty result",
			records: []model.BorrowRecord{
				returned(1, a, "u1@mail.com"),
				returned(2, b, "u1@mail.com"),
				returned(3, a, "u2@mail.com"),
				active(4, b, "u2@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{},
			wantSource: recommend.SourceCollaborative,
		},
		{
			name: "candidates ranked by frequency then id",
			records: []model.BorrowRecord{
				returned(1, a, "u1@mail.com"),
				returned(2, a, "u2@mail.com"),
				returned(3, a, "u3@mail.com"),
				returned(4, e, "u2@mail.com"),
				returned(5, d, "u2@mail.com"),
				returned(6, d, "u3@mail.com"),
				returned(7, f, "u3@mail.com"),
			},
			email:      "u1@mail.com",
			wantIDs:    []int{d, e, f},
			wantSource: recommend.SourceCollaborative,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := recommend.NewIndex(tt.records).Recommend(tt.email)
			require.Equal(t, tt.wantSource, res.Source)
			require.Equal(t, tt.wantIDs, res.BookIDs)
		})
	}
}

func TestIndex_SimilarUsers(t *testing.T) {
	t.Parallel()
	var records []model.BorrowRecord
	id := 0
	add := func(email string, books ...int) {
		for _, b := range books {
			id++
			records = append(records, returned(id, b, email))
		}
	}
	add("me@mail.com", 1, 2, 3)
	add("f@mail.com", 1)
	add("e@mail.com", 1)
	add("d@mail.com", 1, 1, 1)
	add("c@mail.com", 1, 2)
	add("b@mail.com", 1, 2, 3)
	add("a@mail.com", 2)
	add("z@mail.com", 9)

	ix := recommend.NewIndex(records)
	profile := map[int]struct{}{1: {}, 2: {}, 3: {}}

	// repeated loans of one book count once
	got := ix.SimilarUsers("me@mail.com", profile)
	require.Equal(t, []string{"b@mail.com", "c@mail.com", "a@mail.com", "d@mail.com", "e@mail.com"}, got)
}

func TestIndex_RecommendNeverReturnsHistory(t *testing.T) {
	t.Parallel()
	var records []model.BorrowRecord
	users := []string{"u1@mail.com", "u2@mail.com", "u3@mail.com", "u4@mail.com"}
	id := 0
	for i, u := range users {
		for b := 1; b <= 8; b++ {
			if (b+i)%3 == 0 {
				continue
			}
			id++
			if b%4 == 0 {
				records = append(records, active(id, b+i, u))
			} else {
				records = append(records, returned(id, b+i, u))
			}
		}
	}
	ix := recommend.NewIndex(records)
	for _, u := range users {
		history := make(map[int]bool)
		for _, r := range records {
			if r.UserEmail == u {
				history[r.BookID] = true
			}
		}
		for _, bookID := range ix.Recommend(u).BookIDs {
			require.False(t, history[bookID], "user %s got book %d from own history", u, bookID)
		}
	}
}
