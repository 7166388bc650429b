package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/db"
)

// Account is the credential view of a users row.
type Account struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	PasswordHash sql.NullString `db:"password_hash"`
	StudentID    sql.NullString `db:"student_id"`
	Role         string         `db:"role"`
	CreatedAt    time.Time      `db:"created_at"`
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	Create(ctx context.Context, a *Account) error
	UpdatePassword(ctx context.Context, id int64, hash string) (int64, error)
	UpdateRole(ctx context.Context, id int64, role string) (int64, error)
}

type Store struct{ db *sqlx.DB }

func NewStore(conn *sqlx.DB) AccountStore {
	return &Store{db: conn}
}

const accountCols = `id, name, email, password_hash, student_id, role, created_at`

// 見つからない場合は (nil, nil)
func (s *Store) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE email = ? AND deleted_at IS NULL LIMIT 1`
	var a Account
	if err := s.db.GetContext(ctx, &a, q, email); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE id = ? AND deleted_at IS NULL`
	var a Account
	if err := s.db.GetContext(ctx, &a, q, id); err != nil {
		if db.NoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO users (name, email, password_hash, student_id, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, NOW(6), NOW(6))
`
	res, err := s.db.ExecContext(ctx, q, a.Name, a.Email, a.PasswordHash, a.StudentID, a.Role)
	if err != nil {
		return db.MapError(err, "email or student_id")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) (int64, error) {
	const q = `UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, hash, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) UpdateRole(ctx context.Context, id int64, role string) (int64, error) {
	const q = `UPDATE users SET role = ? WHERE id = ? AND deleted_at IS NULL`
	res, err := s.db.ExecContext(ctx, q, role, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
