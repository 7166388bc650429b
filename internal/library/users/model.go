package users

import (
	"database/sql"
	"time"
)

type User struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	StudentID   sql.NullString `db:"student_id"`
	Role        string         `db:"role"`
	ExternalUID sql.NullString `db:"external_uid"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// 一覧の検索条件
type Query struct {
	Q    string // name / email / student_id の部分一致
	Role string
}
