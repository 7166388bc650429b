package books

import (
	"database/sql"
	"time"
)

type Book struct {
	ID            int64          `db:"id"`
	Title         string         `db:"title"`
	Author        string         `db:"author"`
	ISBN          sql.NullString `db:"isbn"`
	Publisher     sql.NullString `db:"publisher"`
	PublishedYear sql.NullInt64  `db:"published_year"`
	Description   sql.NullString `db:"description"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// 検索条件
type Query struct {
	Q      string // title / author / isbn の部分一致
	Status string
}

const (
	minPublishedYear = 1000
	maxPublishedYear = 9999
	maxTitleLen      = 500
	maxAuthorLen     = 255
)
