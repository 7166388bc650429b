package books

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"library-backend/internal/library/checkouts"
	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/paging"
	"library-backend/internal/platform/textnorm"
)

// Ledger is the part of the checkout ledger that owns book status and deletion.
type Ledger interface {
	DeleteBook(ctx context.Context, bookID int64) error
	SetBookStatus(ctx context.Context, bookID int64, status string) (checkouts.BookStatusResponse, error)
}

type Service struct {
	store  Store
	ledger Ledger
	now    func() time.Time
}

func NewService(store Store, ledger Ledger) *Service {
	return &Service{store: store, ledger: ledger, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (BookResponse, error) {
	if id <= 0 {
		return BookResponse{}, apperr.Invalid("book id must be positive")
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if b == nil {
		return BookResponse{}, apperr.NotFound("book not found")
	}
	return toResponse(b), nil
}

func (s *Service) List(ctx context.Context, q Query, p paging.Page) (ListResponse, error) {
	if err := p.Validate(); err != nil {
		return ListResponse{}, err
	}
	switch q.Status {
	case "", checkouts.BookAvailable, checkouts.BookBorrowed, checkouts.BookMaintenance:
	default:
		return ListResponse{}, apperr.Invalid("status must be one of available, borrowed, maintenance")
	}
	q.Q = textnorm.Clean(q.Q)

	rows, total, err := s.store.List(ctx, q, p)
	if err != nil {
		return ListResponse{}, err
	}
	out := make([]BookResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return ListResponse{Books: out, Pagination: p.Of(total)}, nil
}

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	now := s.now().UTC()
	b := &Book{Status: checkouts.BookAvailable, CreatedAt: now, UpdatedAt: now}
	if err := apply(b, UpdateBookRequest{
		Title:         &in.Title,
		Author:        &in.Author,
		ISBN:          in.ISBN,
		Publisher:     in.Publisher,
		PublishedYear: in.PublishedYear,
		Description:   in.Description,
	}); err != nil {
		return BookResponse{}, err
	}
	if err := s.store.Create(ctx, b); err != nil {
		return BookResponse{}, err
	}
	return toResponse(b), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateBookRequest) (BookResponse, error) {
	if id <= 0 {
		return BookResponse{}, apperr.Invalid("book id must be positive")
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return BookResponse{}, err
	}
	if b == nil {
		return BookResponse{}, apperr.NotFound("book not found")
	}
	if err := apply(b, in); err != nil {
		return BookResponse{}, err
	}
	b.UpdatedAt = s.now().UTC()

	ok, err := s.store.Update(ctx, b)
	if err != nil {
		return BookResponse{}, err
	}
	if !ok {
		return BookResponse{}, apperr.NotFound("book not found")
	}
	return toResponse(b), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.ledger.DeleteBook(ctx, id)
}

func (s *Service) SetStatus(ctx context.Context, id int64, status string) (checkouts.BookStatusResponse, error) {
	return s.ledger.SetBookStatus(ctx, id, status)
}

// apply validates in and copies the given fields onto b.
func apply(b *Book, in UpdateBookRequest) error {
	if in.Title != nil {
		v := textnorm.Clean(*in.Title)
		if v == "" {
			return apperr.Invalid("title is required")
		}
		if utf8.RuneCountInString(v) > maxTitleLen {
			return apperr.Invalid("title is too long")
		}
		b.Title = v
	}
	if in.Author != nil {
		v := textnorm.Clean(*in.Author)
		if v == "" {
			return apperr.Invalid("author is required")
		}
		if utf8.RuneCountInString(v) > maxAuthorLen {
			return apperr.Invalid("author is too long")
		}
		b.Author = v
	}
	if in.ISBN != nil {
		isbn, err := normalizeISBN(*in.ISBN)
		if err != nil {
			return err
		}
		b.ISBN = nullString(isbn)
	}
	if in.Publisher != nil {
		b.Publisher = nullString(textnorm.Clean(*in.Publisher))
	}
	if in.Description != nil {
		b.Description = nullString(strings.TrimSpace(*in.Description))
	}
	if in.PublishedYear != nil {
		y := *in.PublishedYear
		if y < minPublishedYear || y > maxPublishedYear {
			return apperr.Invalid("published_year must be between 1000 and 9999")
		}
		b.PublishedYear = sql.NullInt64{Int64: int64(y), Valid: true}
	}
	return nil
}

// normalizeISBN はハイフン・空白を除いた10桁/13桁に揃える。空文字は「ISBNなし」
func normalizeISBN(s string) (string, error) {
	v := strings.ToUpper(textnorm.Clean(s))
	v = strings.NewReplacer("-", "", " ", "").Replace(v)
	if v == "" {
		return "", nil
	}
	switch len(v) {
	case 10:
		for i, r := range v {
			if r >= '0' && r <= '9' || (r == 'X' && i == 9) {
				continue
			}
			return "", apperr.Invalid("invalid isbn")
		}
	case 13:
		for _, r := range v {
			if r < '0' || r > '9' {
				return "", apperr.Invalid("invalid isbn")
			}
		}
	default:
		return "", apperr.Invalid("isbn must have 10 or 13 digits")
	}
	return v, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func toResponse(b *Book) BookResponse {
	r := BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.ISBN.Valid {
		v := b.ISBN.String
		r.ISBN = &v
	}
	if b.Publisher.Valid {
		v := b.Publisher.String
		r.Publisher = &v
	}
	if b.Description.Valid {
		v := b.Description.String
		r.Description = &v
	}
	if b.PublishedYear.Valid {
		v := int(b.PublishedYear.Int64)
		r.PublishedYear = &v
	}
	return r
}
