//go:build integration

// Package dbtest starts a throwaway MySQL for integration tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"library-backend/internal/platform/db"
)

const image = "mysql:8.0"

// New starts a MySQL container, applies the schema and returns a pool.
// The container is terminated when the test ends.
func New(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := mysql.Run(ctx, image,
		mysql.WithDatabase("library"),
		mysql.WithUsername("library"),
		mysql.WithPassword("library"),
	)
	if err != nil {
		t.Fatalf("mysql コンテナの起動に失敗: %v", err)
	}
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "parseTime=true", "loc=UTC", "multiStatements=true", "clientFoundRows=true")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	conn, err := db.Open(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return conn
}

// SeedUser inserts a live user and returns its id.
func SeedUser(t *testing.T, conn *sqlx.DB, name, email string) int64 {
	t.Helper()
	res, err := conn.Exec(`INSERT INTO users (name, email, role) VALUES (?, ?, 'user')`, name, email)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedBook inserts an available book and returns its id.
func SeedBook(t *testing.T, conn *sqlx.DB, title, isbn string) int64 {
	t.Helper()
	var isbnArg any
	if isbn != "" {
		isbnArg = isbn
	}
	res, err := conn.Exec(`INSERT INTO books (title, author, isbn) VALUES (?, 'author', ?)`, title, isbnArg)
	if err != nil {
		t.Fatalf("seed book: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}
