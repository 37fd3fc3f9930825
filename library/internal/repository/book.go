package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookstore/library/internal/errs"
	"github.com/Astemirdum/bookstore/library/internal/model"
)

var bookColumns = []string{"id", "name", "author", "published_year", "book_summary", "cover_image_url", "tags"}

func (r *repository) CreateBook(ctx context.Context, req model.CreateBookRequest, actor string) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns("name", "author", "published_year", "book_summary", "cover_image_url", "tags").
		Values(req.Name, req.Author, req.PublishedYear, req.BookSummary, req.CoverImageURL, model.ParseTags(req.Tags)).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		b, err := collectOne[model.Book](ctx, tx, query, args...)
		if err != nil {
			return errors.Wrap(err, "insert book")
		}
		book = b
		return insertAudit(ctx, tx, book.ID, model.AuditCreate, actor, book)
	})
	if err != nil {
		r.log.Error("CreateBook", zap.String("q", query), zap.Error(err))
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) GetBook(ctx context.Context, id int) (model.Book, error) {
	return r.getBook(ctx, r.db, id, false)
}

func (r *repository) getBook(ctx context.Context, q dbtx, id int, forUpdate bool) (model.Book, error) {
	b := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("for update")
	}
	query, args, err := b.ToSql()
	if err != nil {
		return model.Book{}, err
	}
	book, err := collectOne[model.Book](ctx, q, query, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrBookNotFound
		}
		return model.Book{}, errors.Wrap(err, "GetBook")
	}
	return book, nil
}

func (r *repository) GetBooksByIDs(ctx context.Context, ids []int) (map[int]model.Book, error) {
	books := make(map[int]model.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, err
	}
	list, err := collectList[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "GetBooksByIDs")
	}
	for _, b := range list {
		books[b.ID] = b
	}
	return books, nil
}

func (r *repository) ListBooks(ctx context.Context, filter model.BookFilter) ([]model.Book, error) {
	q := qb.Select(bookColumns...).From(booksTableName)
	if filter.Author != "" {
		q = q.Where(sq.ILike{"author": contains(filter.Author)})
	}
	if filter.YearMin != nil {
		q = q.Where(sq.GtOrEq{"published_year": *filter.YearMin})
	}
	if filter.YearMax != nil {
		q = q.Where(sq.LtOrEq{"published_year": *filter.YearMax})
	}
	if filter.Q != "" {
		pattern := contains(filter.Q)
		q = q.Where(sq.Or{sq.ILike{"name": pattern}, sq.ILike{"book_summary": pattern}})
	}
	query, args, err := q.OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	books, err := collectList[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListBooks")
	}
	return books, nil
}

func (r *repository) ListBooksByTag(ctx context.Context, tag string) ([]model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.NotEq{"tags": nil}).
		Where(sq.ILike{"tags": contains(tag)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	books, err := collectList[model.Book](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListBooksByTag")
	}
	return books, nil
}

func (r *repository) UpdateBook(ctx context.Context, id int, req model.UpdateBookRequest, actor string) (model.Book, error) {
	set := make(map[string]interface{})
	if req.Name != nil {
		set["name"] = *req.Name
	}
	if req.Author != nil {
		set["author"] = *req.Author
	}
	if req.PublishedYear != nil {
		set["published_year"] = *req.PublishedYear
	}
	if req.BookSummary != nil {
		set["book_summary"] = *req.BookSummary
	}
	if req.CoverImageURL != nil {
		set["cover_image_url"] = *req.CoverImageURL
	}
	if req.Tags != nil {
		set["tags"] = model.ParseTags(*req.Tags)
	}

	var book model.Book
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		current, err := r.getBook(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if len(set) == 0 {
			book = current
			return nil
		}
		query, args, err := qb.Update(booksTableName).
			SetMap(set).
			Where(sq.Eq{"id": id}).
			Suffix("returning " + strings.Join(bookColumns, ", ")).
			ToSql()
		if err != nil {
			return err
		}
		b, err := collectOne[model.Book](ctx, tx, query, args...)
		if err != nil {
			return errors.Wrap(err, "update book")
		}
		book = b
		return insertAudit(ctx, tx, id, model.AuditUpdate, actor, req)
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

func (r *repository) SetTags(ctx context.Context, id int, tags model.Tags, actor string) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		Set("tags", tags).
		Where(sq.Eq{"id": id}).
		Suffix("returning " + strings.Join(bookColumns, ", ")).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	var book model.Book
	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		b, err := collectOne[model.Book](ctx, tx, query, args...)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrBookNotFound
			}
			return errors.Wrap(err, "update tags")
		}
		book = b
		return insertAudit(ctx, tx, id, model.AuditTag, actor, map[string]model.Tags{"tags": book.Tags})
	})
	if err != nil {
		return model.Book{}, err
	}
	return book, nil
}

// DeleteBook removes the book and its reviews. Borrow records and audit logs stay.
func (r *repository) DeleteBook(ctx context.Context, id int, actor string) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := r.getBook(ctx, tx, id, true); err != nil {
			return err
		}

		var active bool
		q := fmt.Sprintf(`select exists(select 1 from %s where book_id = $1 and returned_at is null)`, borrowRecordsTableName)
		if err := tx.QueryRow(ctx, q, id).Scan(&active); err != nil {
			return errors.Wrap(err, "check active borrow")
		}
		if active {
			return errs.ErrActiveBorrow
		}

		if _, err := tx.Exec(ctx, fmt.Sprintf(`delete from %s where book_id = $1`, reviewsTableName), id); err != nil {
			return errors.Wrap(err, "delete reviews")
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`delete from %s where id = $1`, booksTableName), id); err != nil {
			return errors.Wrap(err, "delete book")
		}
		return insertAudit(ctx, tx, id, model.AuditDelete, actor, "Book deleted")
	})
}

func (r *repository) ListAuditLogs(ctx context.Context, bookID int) ([]model.AuditLog, error) {
	query, args, err := qb.Select("id", "book_id", "action", "user_email", "timestamp", "details").
		From(auditLogsTableName).
		Where(sq.Eq{"book_id": bookID}).
		OrderBy("timestamp desc", "id desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	logs, err := collectList[model.AuditLog](ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "ListAuditLogs")
	}
	return logs, nil
}

// insertAudit appends an audit row; details is stored as JSON unless it is already a string.
func insertAudit(ctx context.Context, tx pgx.Tx, bookID int, action model.AuditAction, actor string, details any) error {
	var text string
	switch d := details.(type) {
	case string:
		text = d
	default:
		data, err := json.Marshal(d)
		if err != nil {
			return err
		}
		text = string(data)
	}
	q := fmt.Sprintf(`insert into %s (book_id, action, user_email, timestamp, details)
	values (@book_id, @action, @user_email, @timestamp, @details)`, auditLogsTableName)
	args := pgx.NamedArgs{
		"book_id":    bookID,
		"action":     string(action),
		"user_email": actor,
		"timestamp":  time.Now().UTC(),
		"details":    text,
	}
	if _, err := tx.Exec(ctx, q, args); err != nil {
		return errors.Wrap(err, "insert audit")
	}
	return nil
}
