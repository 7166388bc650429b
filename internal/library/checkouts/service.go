package checkouts

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/paging"
)

// Service is the checkout ledger. It is the only writer of books.status and
// the only path that soft-deletes books and users.
type Service struct {
	repo       Repository
	now        func() time.Time
	loanPeriod time.Duration
	maxOpen    int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLoanPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.loanPeriod = d
		}
	}
}

func WithMaxOpen(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxOpen = n
		}
	}
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		now:        time.Now,
		loanPeriod: DefaultLoanPeriod,
		maxOpen:    DefaultMaxOpen,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DATETIME(6) に合わせてマイクロ秒で丸める
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Checkout lends a book to a user.
func (s *Service) Checkout(ctx context.Context, in CheckoutRequest) (CheckoutResponse, error) {
	if in.BookID <= 0 {
		return CheckoutResponse{}, apperr.Invalid("book_id must be positive")
	}
	if in.UserID <= 0 {
		return CheckoutResponse{}, apperr.Invalid("user_id must be positive")
	}

	now := s.clock()
	due := now.Add(s.loanPeriod)
	if in.DueDate != nil {
		due = in.DueDate.UTC().Truncate(time.Microsecond)
		if !due.After(now) {
			return CheckoutResponse{}, apperr.Invalid("due_date must be in the future")
		}
	}

	c := &Checkout{
		BookID:       in.BookID,
		UserID:       in.UserID,
		BorrowedDate: now,
		DueDate:      due,
		Status:       StatusBorrowed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// ロック順は 書籍 → 利用者 で固定
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		book, err := tx.LockBook(ctx, in.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return apperr.NotFound("book not found")
		}
		if book.Status != BookAvailable {
			return apperr.Conflict("book is not available for checkout")
		}

		user, err := tx.LockUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.NotFound("user not found")
		}

		open, err := tx.CountOpenByUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if open >= s.maxOpen {
			return apperr.LimitExceeded(fmt.Sprintf("user already has %d open checkouts (max %d)", open, s.maxOpen))
		}

		if err := tx.InsertCheckout(ctx, c); err != nil {
			return err
		}
		ok, err := tx.TransitionBook(ctx, in.BookID, BookAvailable, BookBorrowed)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("book is not available for checkout")
		}
		return nil
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	log.Printf("[INFO] checkout id=%d book_id=%d user_id=%d due=%s", c.ID, c.BookID, c.UserID, c.DueDate.Format(time.RFC3339))
	return s.Get(ctx, c.ID)
}

// ReturnBook closes an open checkout and makes the book available again.
func (s *Service) ReturnBook(ctx context.Context, checkoutID int64, in ReturnRequest) (CheckoutResponse, error) {
	if checkoutID <= 0 {
		return CheckoutResponse{}, apperr.Invalid("checkout id must be positive")
	}
	at := s.clock()
	if in.ReturnDate != nil {
		at = in.ReturnDate.UTC().Truncate(time.Microsecond)
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.LockCheckout(ctx, checkoutID)
		if err != nil {
			return err
		}
		if c == nil || c.Status != StatusBorrowed {
			return apperr.NotFound("no open checkout with that id")
		}
		if at.Before(c.BorrowedDate) {
			return apperr.Invalid("return_date must not be before borrowed_date")
		}

		ok, err := tx.CloseCheckout(ctx, checkoutID, at)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("no open checkout with that id")
		}
		ok, err = tx.TransitionBook(ctx, c.BookID, BookBorrowed, BookAvailable)
		if err != nil {
			return err
		}
		if !ok {
			// 貸出中の貸出があるのに書籍が borrowed でない＝不整合。ロールバックする
			return fmt.Errorf("book %d is not borrowed while checkout %d is open", c.BookID, checkoutID)
		}
		return nil
	})
	if err != nil {
		return CheckoutResponse{}, err
	}

	log.Printf("[INFO] return checkout_id=%d", checkoutID)
	return s.Get(ctx, checkoutID)
}

func (s *Service) Get(ctx context.Context, id int64) (CheckoutResponse, error) {
	if id <= 0 {
		return CheckoutResponse{}, apperr.Invalid("checkout id must be positive")
	}
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return CheckoutResponse{}, err
	}
	return toResponse(d, s.clock()), nil
}

func (s *Service) List(ctx context.Context, f Filter, p paging.Page) (ListResponse, error) {
	if err := p.Validate(); err != nil {
		return ListResponse{}, err
	}
	switch f.Status {
	case "", StatusBorrowed, StatusReturned, StatusOverdue:
	default:
		return ListResponse{}, apperr.Invalid("status must be one of borrowed, returned, overdue")
	}
	now := s.clock()
	rows, total, err := s.repo.List(ctx, f, now, p)
	if err != nil {
		return ListResponse{}, err
	}
	return toList(rows, total, p, now), nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64, p paging.Page) (ListResponse, error) {
	if userID <= 0 {
		return ListResponse{}, apperr.Invalid("user_id must be positive")
	}
	return s.List(ctx, Filter{UserID: userID}, p)
}

// ListOverdue: 未返却かつ期限切れを期限の古い順に
func (s *Service) ListOverdue(ctx context.Context, p paging.Page) (ListResponse, error) {
	if err := p.Validate(); err != nil {
		return ListResponse{}, err
	}
	now := s.clock()
	rows, total, err := s.repo.ListOverdue(ctx, now, p)
	if err != nil {
		return ListResponse{}, err
	}
	return toList(rows, total, p, now), nil
}

// ExportOverdueCSV writes every overdue checkout as CP932 CSV.
func (s *Service) ExportOverdueCSV(ctx context.Context, w io.Writer) (int, error) {
	now := s.clock()
	rows, err := s.repo.AllOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	if err := writeOverdueCSV(w, rows, now); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Service) DeleteBook(ctx context.Context, bookID int64) error {
	if bookID <= 0 {
		return apperr.Invalid("book id must be positive")
	}
	res, err := s.repo.SoftDeleteBook(ctx, bookID, s.clock())
	if err != nil {
		return err
	}
	switch res {
	case Missing:
		return apperr.NotFound("book not found")
	case Blocked:
		return apperr.Conflict("book has an open checkout")
	}
	log.Printf("[INFO] book deleted id=%d", bookID)
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return apperr.Invalid("user id must be positive")
	}
	res, err := s.repo.SoftDeleteUser(ctx, userID, s.clock())
	if err != nil {
		return err
	}
	switch res {
	case Missing:
		return apperr.NotFound("user not found")
	case Blocked:
		return apperr.Conflict("user has open checkouts")
	}
	log.Printf("[INFO] user deleted id=%d", userID)
	return nil
}

// SetBookStatus: 手動で変更できるのは available ⇄ maintenance のみ
func (s *Service) SetBookStatus(ctx context.Context, bookID int64, status string) (BookStatusResponse, error) {
	if bookID <= 0 {
		return BookStatusResponse{}, apperr.Invalid("book id must be positive")
	}
	if status != BookAvailable && status != BookMaintenance {
		return BookStatusResponse{}, apperr.Invalid("status must be available or maintenance")
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		book, err := tx.LockBook(ctx, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return apperr.NotFound("book not found")
		}
		if book.Status == BookBorrowed {
			return apperr.Conflict("book is checked out")
		}
		if book.Status == status {
			return nil
		}
		ok, err := tx.TransitionBook(ctx, bookID, book.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("book status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return BookStatusResponse{}, err
	}
	return BookStatusResponse{ID: bookID, Status: status}, nil
}

func toList(rows []CheckoutDetail, total int64, p paging.Page, now time.Time) ListResponse {
	out := make([]CheckoutResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i], now))
	}
	return ListResponse{Checkouts: out, Pagination: p.Of(total)}
}

func toResponse(d *CheckoutDetail, now time.Time) CheckoutResponse {
	r := CheckoutResponse{
		ID:           d.ID,
		BookID:       d.BookID,
		UserID:       d.UserID,
		BorrowedDate: d.BorrowedDate,
		DueDate:      d.DueDate,
		Status:       d.Status,
		Overdue:      d.OverdueAt(now),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		Book:         BookSummary{ID: d.BookID, Title: d.BookTitle, Author: d.BookAuthor},
		User:         UserSummary{ID: d.UserID, Name: d.UserName, Email: d.UserEmail},
	}
	if d.ReturnDate.Valid {
		t := d.ReturnDate.Time
		r.ReturnDate = &t
	}
	if d.BookISBN.Valid {
		v := d.BookISBN.String
		r.Book.ISBN = &v
	}
	if d.UserStudentID.Valid {
		v := d.UserStudentID.String
		r.User.StudentID = &v
	}
	return r
}
