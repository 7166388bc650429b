package stats

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/db"
)

type Store interface {
	Overview(ctx context.Context, now, monthStart, monthEnd time.Time) (Overview, error)
	DailyCheckouts(ctx context.Context, from, to time.Time) ([]DayCount, error)
	DailyReturns(ctx context.Context, from, to time.Time) ([]DayCount, error)
	Popular(ctx context.Context, limit int) ([]PopularBook, error)
	// UserStats returns nil when the user does not exist or is deleted.
	UserStats(ctx context.Context, userID int64, now time.Time) (*UserStats, error)
}

type sqlStore struct{ db *sqlx.DB }

func NewStore(conn *sqlx.DB) Store { return &sqlStore{db: conn} }

func (s *sqlStore) Overview(ctx context.Context, now, monthStart, monthEnd time.Time) (Overview, error) {
	const q = `
SELECT
  (SELECT COUNT(*) FROM books WHERE deleted_at IS NULL) AS total_books,
  (SELECT COUNT(*) FROM books WHERE deleted_at IS NULL AND status = 'available') AS available_books,
  (SELECT COUNT(*) FROM books WHERE deleted_at IS NULL AND status = 'borrowed') AS borrowed_books,
  (SELECT COUNT(*) FROM books WHERE deleted_at IS NULL AND status = 'maintenance') AS maintenance_books,
  (SELECT COUNT(*) FROM checkouts WHERE deleted_at IS NULL AND borrowed_date >= ? AND borrowed_date < ?) AS monthly_checkouts,
  (SELECT COUNT(*) FROM checkouts WHERE deleted_at IS NULL AND status = 'borrowed' AND due_date < ?) AS overdue_books,
  (SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS total_users`
	var o Overview
	if err := s.db.GetContext(ctx, &o, q, monthStart, monthEnd, now); err != nil {
		return Overview{}, err
	}
	return o, nil
}

func (s *sqlStore) DailyCheckouts(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	const q = `
SELECT DATE(borrowed_date) AS day, COUNT(*) AS count
FROM checkouts
WHERE deleted_at IS NULL AND borrowed_date >= ? AND borrowed_date < ?
GROUP BY DATE(borrowed_date)
ORDER BY day`
	rows := []DayCount{}
	if err := s.db.SelectContext(ctx, &rows, q, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlStore) DailyReturns(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	const q = `
SELECT DATE(return_date) AS day, COUNT(*) AS count
FROM checkouts
WHERE deleted_at IS NULL AND status = 'returned' AND return_date >= ? AND return_date < ?
GROUP BY DATE(return_date)
ORDER BY day`
	rows := []DayCount{}
	if err := s.db.SelectContext(ctx, &rows, q, from, to); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlStore) Popular(ctx context.Context, limit int) ([]PopularBook, error) {
	const q = `
SELECT b.id, b.title, b.author, COUNT(c.id) AS checkout_count
FROM checkouts c
JOIN books b ON b.id = c.book_id AND b.deleted_at IS NULL
WHERE c.deleted_at IS NULL
GROUP BY b.id, b.title, b.author
ORDER BY checkout_count DESC, b.id ASC
LIMIT ?`
	rows := []PopularBook{}
	if err := s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *sqlStore) UserStats(ctx context.Context, userID int64, now time.Time) (*UserStats, error) {
	var live int
	if err := s.db.GetContext(ctx, &live, `SELECT COUNT(*) FROM users WHERE id = ? AND deleted_at IS NULL`, userID); err != nil {
		return nil, err
	}
	if live == 0 {
		return nil, nil
	}

	const q = `
SELECT
  COUNT(*) AS total_checkouts,
  COALESCE(SUM(status = 'borrowed'), 0) AS active_checkouts,
  COALESCE(SUM(status = 'borrowed' AND due_date < ?), 0) AS overdue_checkouts,
  COALESCE(SUM(status = 'returned'), 0) AS returned_books
FROM checkouts
WHERE user_id = ? AND deleted_at IS NULL`
	var st UserStats
	if err := s.db.GetContext(ctx, &st, q, now, userID); err != nil {
		if db.NoRows(err) {
			return &UserStats{UserID: userID}, nil
		}
		return nil, err
	}
	st.UserID = userID
	return &st, nil
}
