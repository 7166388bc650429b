package books

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/db"
	"library-backend/internal/platform/paging"
	"library-backend/internal/platform/textnorm"
)

type Store interface {
	Get(ctx context.Context, id int64) (*Book, error)
	List(ctx context.Context, q Query, p paging.Page) ([]Book, int64, error)
	Create(ctx context.Context, b *Book) error
	Update(ctx context.Context, b *Book) (bool, error)
}

type sqlStore struct{ db *sqlx.DB }

func NewStore(conn *sqlx.DB) Store { return &sqlStore{db: conn} }

var bookCols = []any{
	"id", "title", "author", "isbn", "publisher", "published_year",
	"description", "status", "created_at", "updated_at",
}

func (s *sqlStore) base() *goqu.SelectDataset {
	return db.Dialect.From("books").Select(bookCols...).Where(db.Live("books"))
}

// 見つからない場合は (nil, nil)
func (s *sqlStore) Get(ctx context.Context, id int64) (*Book, error) {
	q, args, err := s.base().Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var b Book
	if err := s.db.GetContext(ctx, &b, q, args...); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (s *sqlStore) List(ctx context.Context, f Query, p paging.Page) ([]Book, int64, error) {
	ds := s.base()
	if f.Q != "" {
		pat := textnorm.Contains(f.Q)
		ds = ds.Where(goqu.Or(
			goqu.C("title").Like(pat),
			goqu.C("author").Like(pat),
			goqu.C("isbn").Like(pat),
		))
	}
	if f.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(f.Status))
	}
	ds = ds.Order(goqu.C("created_at").Desc(), goqu.C("id").Desc())

	rows := []Book{}
	total, err := db.SelectPage(ctx, s.db, &rows, ds, p)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *sqlStore) Create(ctx context.Context, b *Book) error {
	q, args, err := db.Dialect.Insert("books").Rows(goqu.Record{
		"title":          b.Title,
		"author":         b.Author,
		"isbn":           b.ISBN,
		"publisher":      b.Publisher,
		"published_year": b.PublishedYear,
		"description":    b.Description,
		"status":         b.Status,
		"created_at":     b.CreatedAt,
		"updated_at":     b.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return db.MapError(err, "isbn")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// Update writes the descriptive columns. status is owned by the checkout ledger.
func (s *sqlStore) Update(ctx context.Context, b *Book) (bool, error) {
	q, args, err := db.Dialect.Update("books").Set(goqu.Record{
		"title":          b.Title,
		"author":         b.Author,
		"isbn":           b.ISBN,
		"publisher":      b.Publisher,
		"published_year": b.PublishedYear,
		"description":    b.Description,
		"updated_at":     b.UpdatedAt,
	}).Where(goqu.C("id").Eq(b.ID), db.Live("books")).Prepared(true).ToSQL()
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, db.MapError(err, "isbn")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
