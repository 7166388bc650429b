package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"library-backend/internal/platform/apperr"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Txを開始して fn を実行。fn が nil を返せば COMMIT、エラー(panic含む)なら ROLLBACK。
func RunInTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// MySQL エラー番号
const (
	errDupEntry     = 1062
	errNoReferenced = 1452
	errDeadlock     = 1213
	errLockWait     = 1205
)

// MapError converts driver errors that callers can act on into taxonomy errors.
// what names the entity for the message, e.g. "email".
func MapError(err error, what string) error {
	if err == nil {
		return nil
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		switch me.Number {
		case errDupEntry:
			return apperr.Conflict(fmt.Sprintf("%s already exists", what))
		case errNoReferenced:
			return apperr.Invalid(fmt.Sprintf("invalid reference in %s", what))
		case errDeadlock, errLockWait:
			return apperr.Conflict("concurrent update, please retry")
		}
	}
	return err
}

// NoRows reports sql.ErrNoRows.
func NoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }
