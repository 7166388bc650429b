package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Statements are idempotent (IF NOT EXISTS).
// The DSN must allow multi statements (see DSN).
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("スキーマ適用に失敗: %w", err)
	}
	log.Printf("[INFO] schema applied")
	return nil
}
