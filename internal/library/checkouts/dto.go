package checkouts

import (
	"time"

	"library-backend/internal/platform/paging"
)

// 貸出登録リクエスト
type CheckoutRequest struct {
	BookID  int64      `json:"book_id" binding:"required"`
	UserID  int64      `json:"user_id" binding:"required"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// 返却リクエスト
type ReturnRequest struct {
	ReturnDate *time.Time `json:"return_date,omitempty"`
}

type BookStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookSummary struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn"`
}

type UserSummary struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	StudentID *string `json:"student_id,omitempty"`
}

type CheckoutResponse struct {
	ID           int64       `json:"id"`
	BookID       int64       `json:"book_id"`
	UserID       int64       `json:"user_id"`
	BorrowedDate time.Time   `json:"borrowed_date"`
	DueDate      time.Time   `json:"due_date"`
	ReturnDate   *time.Time  `json:"return_date"`
	Status       string      `json:"status"`
	Overdue      bool        `json:"overdue"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Book         BookSummary `json:"book"`
	User         UserSummary `json:"user"`
}

type ListResponse struct {
	Checkouts  []CheckoutResponse `json:"checkouts"`
	Pagination paging.Pagination  `json:"pagination"`
}

type BookStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
