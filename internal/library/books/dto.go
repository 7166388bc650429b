package books

import (
	"time"

	"library-backend/internal/platform/paging"
)

type CreateBookRequest struct {
	Title         string  `json:"title" binding:"required"`
	Author        string  `json:"author" binding:"required"`
	ISBN          *string `json:"isbn,omitempty"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	Description   *string `json:"description,omitempty"`
}

// 指定されたフィールドのみ更新する
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	ISBN          *string `json:"isbn,omitempty"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	Description   *string `json:"description,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type BookResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          *string   `json:"isbn"`
	Publisher     *string   `json:"publisher"`
	PublishedYear *int      `json:"published_year"`
	Description   *string   `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListResponse struct {
	Books      []BookResponse    `json:"books"`
	Pagination paging.Pagination `json:"pagination"`
}
