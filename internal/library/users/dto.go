package users

import (
	"time"

	"library-backend/internal/platform/paging"
)

type CreateUserRequest struct {
	Name      string  `json:"name" binding:"required,max=255"`
	Email     string  `json:"email" binding:"required,max=255"`
	StudentID *string `json:"student_id,omitempty" binding:"omitempty,max=50"`
	Role      string  `json:"role,omitempty"`
	// 省略時はパスワードなし（外部IdPでのみログイン可）
	Password *string `json:"password,omitempty"`
}

type UpdateUserRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,max=255"`
	Email     *string `json:"email,omitempty" binding:"omitempty,max=255"`
	StudentID *string `json:"student_id,omitempty" binding:"omitempty,max=50"`
}

type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	StudentID *string   `json:"student_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListResponse struct {
	Users      []UserResponse    `json:"users"`
	Pagination paging.Pagination `json:"pagination"`
}
