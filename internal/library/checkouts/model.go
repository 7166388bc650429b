package checkouts

import (
	"database/sql"
	"time"
)

// 貸出ステータス（overdue は保存しない。due_date から導出する）
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
	// 一覧フィルタ専用の導出ステータス
	StatusOverdue = "overdue"
)

// 蔵書ステータス。books.status を書き換えるのは Ledger のみ
const (
	BookAvailable   = "available"
	BookBorrowed    = "borrowed"
	BookMaintenance = "maintenance"
)

const (
	DefaultLoanPeriod = 14 * 24 * time.Hour
	DefaultMaxOpen    = 5
)

// Checkout は checkouts テーブルの1行を表す
type Checkout struct {
	ID           int64        `db:"id"`
	BookID       int64        `db:"book_id"`
	UserID       int64        `db:"user_id"`
	BorrowedDate time.Time    `db:"borrowed_date"`
	DueDate      time.Time    `db:"due_date"`
	ReturnDate   sql.NullTime `db:"return_date"`
	Status       string       `db:"status"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

// OverdueAt: 未返却かつ期限切れ
func (c Checkout) OverdueAt(now time.Time) bool {
	return c.Status == StatusBorrowed && c.DueDate.Before(now)
}

// CheckoutDetail is a checkout joined with its book and user for display.
type CheckoutDetail struct {
	Checkout
	BookTitle     string         `db:"book_title"`
	BookAuthor    string         `db:"book_author"`
	BookISBN      sql.NullString `db:"book_isbn"`
	UserName      string         `db:"user_name"`
	UserEmail     string         `db:"user_email"`
	UserStudentID sql.NullString `db:"user_student_id"`
}

// ロック取得時に読む最小限の列
type BookRow struct {
	ID     int64  `db:"id"`
	Status string `db:"status"`
}

type UserRow struct {
	ID   int64  `db:"id"`
	Role string `db:"role"`
}

// 一覧取得用の検索条件
type Filter struct {
	Status string // borrowed | returned | overdue
	UserID int64
	BookID int64
}

// 論理削除の結果
type DeleteResult int

const (
	Deleted DeleteResult = iota
	Missing
	Blocked
)
