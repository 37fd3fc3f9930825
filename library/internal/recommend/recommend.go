// Package recommend ranks books for a reader from a snapshot of the borrow ledger.
//
// A reader with completed loans gets user-based collaborative filtering over
// two hops: readers who borrowed the same books, then what those readers
// borrowed. A reader without completed loans gets the global popularity ranking.
package recommend

import (
	"sort"

	"github.com/Astemirdum/bookstore/library/internal/model"
)

// MaxSimilarUsers bounds the neighbourhood considered for a reader.
const MaxSimilarUsers = 5

type Source string

const (
	SourceCollaborative Source = "collaborative"
	SourcePopular       Source = "popular"
)

// Result holds book ids, most relevant first. The list is not truncated;
// callers cut it after resolving ids to books.
type Result struct {
	BookIDs []int
	Source  Source
}

// Index is an immutable view of the ledger keyed by reader and by book.
type Index struct {
	byUser map[string][]model.BorrowRecord
	byBook map[int][]model.BorrowRecord
}

func NewIndex(records []model.BorrowRecord) *Index {
	ix := &Index{
		byUser: make(map[string][]model.BorrowRecord),
		byBook: make(map[int][]model.BorrowRecord),
	}
	for _, rec := range records {
		ix.byUser[rec.UserEmail] = append(ix.byUser[rec.UserEmail], rec)
		ix.byBook[rec.BookID] = append(ix.byBook[rec.BookID], rec)
	}
	return ix
}

// Recommend never returns a book the reader has borrowed, returned or not.
func (ix *Index) Recommend(email string) Result {
	profile := ix.completedBooks(email)
	if len(profile) == 0 {
		return Result{BookIDs: ix.Popular(), Source: SourcePopular}
	}

	similar := ix.SimilarUsers(email, profile)
	if len(similar) == 0 {
		return Result{BookIDs: []int{}, Source: SourceCollaborative}
	}

	history := make(map[int]struct{})
	for _, rec := range ix.byUser[email] {
		history[rec.BookID] = struct{}{}
	}

	freq := make(map[int]int)
	for _, u := range similar {
		for _, rec := range ix.byUser[u] {
			if _, seen := history[rec.BookID]; seen {
				continue
			}
			freq[rec.BookID]++
		}
	}
	return Result{BookIDs: rank(freq), Source: SourceCollaborative}
}

// Popular ranks every borrowed book by loan count, ties by id.
func (ix *Index) Popular() []int {
	counts := make(map[int]int, len(ix.byBook))
	for id, recs := range ix.byBook {
		counts[id] = len(recs)
	}
	return rank(counts)
}

// SimilarUsers returns up to MaxSimilarUsers other readers who borrowed any
// profile book, ordered by distinct shared books then email.
func (ix *Index) SimilarUsers(email string, profile map[int]struct{}) []string {
	shared := make(map[string]map[int]struct{})
	for bookID := range profile {
		for _, rec := range ix.byBook[bookID] {
			if rec.UserEmail == email {
				continue
			}
			books, ok := shared[rec.UserEmail]
			if !ok {
				books = make(map[int]struct{})
				shared[rec.UserEmail] = books
			}
			books[bookID] = struct{}{}
		}
	}

	users := make([]string, 0, len(shared))
	for u := range shared {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		ni, nj := len(shared[users[i]]), len(shared[users[j]])
		if ni != nj {
			return ni > nj
		}
		return users[i] < users[j]
	})
	if len(users) > MaxSimilarUsers {
		users = users[:MaxSimilarUsers]
	}
	return users
}

func (ix *Index) completedBooks(email string) map[int]struct{} {
	books := make(map[int]struct{})
	for _, rec := range ix.byUser[email] {
		if !rec.Active() {
			books[rec.BookID] = struct{}{}
		}
	}
	return books
}

// rank orders ids by count desc, then id asc.
func rank(counts map[int]int) []int {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
