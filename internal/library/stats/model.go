package stats

import "time"

type Overview struct {
	TotalBooks       int64 `db:"total_books" json:"total_books"`
	AvailableBooks   int64 `db:"available_books" json:"available_books"`
	BorrowedBooks    int64 `db:"borrowed_books" json:"borrowed_books"`
	MaintenanceBooks int64 `db:"maintenance_books" json:"maintenance_books"`
	MonthlyCheckouts int64 `db:"monthly_checkouts" json:"monthly_checkouts"`
	OverdueBooks     int64 `db:"overdue_books" json:"overdue_books"`
	TotalUsers       int64 `db:"total_users" json:"total_users"`
}

// 日別件数（DATE() の結果）
type DayCount struct {
	Day   time.Time `db:"day"`
	Count int64     `db:"count"`
}

type DailyStats struct {
	Date      string `json:"date"`
	Checkouts int64  `json:"checkouts"`
	Returns   int64  `json:"returns"`
}

type MonthlyResponse struct {
	Year  int          `json:"year"`
	Month int          `json:"month"`
	Stats []DailyStats `json:"stats"`
}

type PopularBook struct {
	ID            int64  `db:"id" json:"id"`
	Title         string `db:"title" json:"title"`
	Author        string `db:"author" json:"author"`
	CheckoutCount int64  `db:"checkout_count" json:"checkout_count"`
}

type UserStats struct {
	UserID           int64 `db:"-" json:"user_id"`
	TotalCheckouts   int64 `db:"total_checkouts" json:"total_checkouts"`
	ActiveCheckouts  int64 `db:"active_checkouts" json:"active_checkouts"`
	OverdueCheckouts int64 `db:"overdue_checkouts" json:"overdue_checkouts"`
	ReturnedBooks    int64 `db:"returned_books" json:"returned_books"`
}

const (
	DefaultPopularLimit = 10
	MaxPopularLimit     = 50
)
