package checkouts

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/paging"
)

type Store struct {
	db *sqlx.DB
}

func NewStore(conn *sqlx.DB) *Store { return &Store{db: conn} }

var _ Repository = (*Store)(nil)

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
	// デッドロック・ロック待ちタイムアウトは CONFLICT に寄せる
	return db.MapError(err, "checkout")
}

// 一覧・詳細で共通の SELECT（書籍・利用者を結合）
func detailDataset() *goqu.SelectDataset {
	return db.Dialect.From(goqu.T("checkouts").As("c")).
		Select(
			goqu.I("c.id"), goqu.I("c.book_id"), goqu.I("c.user_id"),
			goqu.I("c.borrowed_date"), goqu.I("c.due_date"), goqu.I("c.return_date"),
			goqu.I("c.status"), goqu.I("c.created_at"), goqu.I("c.updated_at"),
			goqu.I("b.title").As("book_title"),
			goqu.I("b.author").As("book_author"),
			goqu.I("b.isbn").As("book_isbn"),
			goqu.I("u.name").As("user_name"),
			goqu.I("u.email").As("user_email"),
			goqu.I("u.student_id").As("user_student_id"),
		).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("c.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("c.user_id")))).
		Where(db.Live("c"))
}

func (s *Store) Get(ctx context.Context, id int64) (*CheckoutDetail, error) {
	q, args, err := detailDataset().Where(goqu.I("c.id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}
	var d CheckoutDetail
	if err := s.db.GetContext(ctx, &d, q, args...); err != nil {
		if db.NoRows(err) {
			return nil, apperr.NotFound("checkout not found")
		}
		return nil, err
	}
	return &d, nil
}

func (s *Store) List(ctx context.Context, f Filter, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error) {
	ds := detailDataset()
	switch f.Status {
	case "":
	case StatusOverdue:
		ds = ds.Where(goqu.I("c.status").Eq(StatusBorrowed), goqu.I("c.due_date").Lt(now))
	default:
		ds = ds.Where(goqu.I("c.status").Eq(f.Status))
	}
	if f.UserID > 0 {
		ds = ds.Where(goqu.I("c.user_id").Eq(f.UserID))
	}
	if f.BookID > 0 {
		ds = ds.Where(goqu.I("c.book_id").Eq(f.BookID))
	}
	if f.Status == StatusOverdue {
		// 延滞は期限の古い順
		ds = ds.Order(goqu.I("c.due_date").Asc(), goqu.I("c.id").Asc())
	} else {
		ds = ds.Order(goqu.I("c.borrowed_date").Desc(), goqu.I("c.id").Desc())
	}

	rows := []CheckoutDetail{}
	total, err := db.SelectPage(ctx, s.db, &rows, ds, p)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func overdueDataset(now time.Time) *goqu.SelectDataset {
	return detailDataset().
		Where(goqu.I("c.status").Eq(StatusBorrowed), goqu.I("c.due_date").Lt(now)).
		Order(goqu.I("c.due_date").Asc(), goqu.I("c.id").Asc())
}

func (s *Store) ListOverdue(ctx context.Context, now time.Time, p paging.Page) ([]CheckoutDetail, int64, error) {
	rows := []CheckoutDetail{}
	total, err := db.SelectPage(ctx, s.db, &rows, overdueDataset(now), p)
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Store) AllOverdue(ctx context.Context, now time.Time) ([]CheckoutDetail, error) {
	rows := []CheckoutDetail{}
	if err := db.Select(ctx, s.db, &rows, overdueDataset(now)); err != nil {
		return nil, err
	}
	return rows, nil
}

// 貸出中の本・未返却の貸出が残っている本は削除しない（判定と更新を1文で行う）
func (s *Store) SoftDeleteBook(ctx context.Context, id int64, at time.Time) (DeleteResult, error) {
	const q = `
UPDATE books b SET b.deleted_at = ?
WHERE b.id = ? AND b.deleted_at IS NULL AND b.status <> 'borrowed'
  AND NOT EXISTS (
    SELECT 1 FROM checkouts c
    WHERE c.book_id = b.id AND c.status = 'borrowed' AND c.deleted_at IS NULL
  )`
	return s.softDelete(ctx, q, "books", id, at)
}

func (s *Store) SoftDeleteUser(ctx context.Context, id int64, at time.Time) (DeleteResult, error) {
	const q = `
UPDATE users u SET u.deleted_at = ?
WHERE u.id = ? AND u.deleted_at IS NULL
  AND NOT EXISTS (
    SELECT 1 FROM checkouts c
    WHERE c.user_id = u.id AND c.status = 'borrowed' AND c.deleted_at IS NULL
  )`
	return s.softDelete(ctx, q, "users", id, at)
}

func (s *Store) softDelete(ctx context.Context, q, table string, id int64, at time.Time) (DeleteResult, error) {
	res, err := s.db.ExecContext(ctx, q, at, id)
	if err != nil {
		return 0, db.MapError(err, table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		return Deleted, nil
	}

	// 0件: 存在しないのか、貸出中で弾かれたのかを切り分ける
	var live int
	cq := `SELECT COUNT(*) FROM ` + table + ` WHERE id = ? AND deleted_at IS NULL`
	if err := s.db.GetContext(ctx, &live, cq, id); err != nil {
		return 0, err
	}
	if live == 0 {
		return Missing, nil
	}
	return Blocked, nil
}

// ===== Tx =====

type txStore struct {
	tx *sqlx.Tx
}

func (t *txStore) LockBook(ctx context.Context, id int64) (*BookRow, error) {
	const q = `SELECT id, status FROM books WHERE id = ? AND deleted_at IS NULL FOR UPDATE`
	var b BookRow
	if err := t.tx.GetContext(ctx, &b, q, id); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (t *txStore) LockUser(ctx context.Context, id int64) (*UserRow, error) {
	const q = `SELECT id, role FROM users WHERE id = ? AND deleted_at IS NULL FOR UPDATE`
	var u UserRow
	if err := t.tx.GetContext(ctx, &u, q, id); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (t *txStore) LockCheckout(ctx context.Context, id int64) (*Checkout, error) {
	const q = `
SELECT id, book_id, user_id, borrowed_date, due_date, return_date, status, created_at, updated_at
FROM checkouts WHERE id = ? AND deleted_at IS NULL FOR UPDATE`
	var c Checkout
	if err := t.tx.GetContext(ctx, &c, q, id); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (t *txStore) CountOpenByUser(ctx context.Context, userID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM checkouts WHERE user_id = ? AND status = 'borrowed' AND deleted_at IS NULL`
	var n int
	if err := t.tx.GetContext(ctx, &n, q, userID); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *txStore) InsertCheckout(ctx context.Context, c *Checkout) error {
	const q = `
INSERT INTO checkouts (book_id, user_id, borrowed_date, due_date, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q, c.BookID, c.UserID, c.BorrowedDate, c.DueDate, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return db.MapError(err, "checkout")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (t *txStore) TransitionBook(ctx context.Context, bookID int64, from, to string) (bool, error) {
	const q = `UPDATE books SET status = ? WHERE id = ? AND status = ? AND deleted_at IS NULL`
	return affectedOne(t.tx.ExecContext(ctx, q, to, bookID, from))
}

func (t *txStore) CloseCheckout(ctx context.Context, id int64, at time.Time) (bool, error) {
	const q = `
UPDATE checkouts SET status = 'returned', return_date = ?
WHERE id = ? AND status = 'borrowed' AND deleted_at IS NULL`
	return affectedOne(t.tx.ExecContext(ctx, q, at, id))
}

type execResult interface {
	RowsAffected() (int64, error)
}

func affectedOne(res execResult, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
