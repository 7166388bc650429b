package auth

import (
	"context"
	"database/sql"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/textnorm"
)

const minPasswordLen = 6

// TokenIssuer signs a session token for a local account.
type TokenIssuer interface {
	Issue(userID int64, role string) (string, error)
}

type Service struct {
	store  AccountStore
	tokens TokenIssuer
}

func NewService(store AccountStore, tokens TokenIssuer) *Service {
	return &Service{store: store, tokens: tokens}
}

type AccountResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	StudentID *string   `json:"student_id,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionResponse struct {
	Token string          `json:"token"`
	User  AccountResponse `json:"user"`
}

func toAccountResponse(a *Account) AccountResponse {
	r := AccountResponse{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role, CreatedAt: a.CreatedAt}
	if a.StudentID.Valid {
		v := a.StudentID.String
		r.StudentID = &v
	}
	return r
}

// NFKC 正規化してから小文字化
func normalizeEmail(s string) string { return strings.ToLower(textnorm.Clean(s)) }

func (s *Service) Login(ctx context.Context, email, password string) (SessionResponse, error) {
	acct, err := s.store.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return SessionResponse{}, err
	}
	// 外部IdPのみのアカウントはパスワードを持たない
	if acct == nil || !acct.PasswordHash.Valid {
		return SessionResponse{}, apperr.Unauthenticated("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash.String), []byte(password)); err != nil {
		return SessionResponse{}, apperr.Unauthenticated("invalid email or password")
	}
	return s.session(acct)
}

type RegisterRequest struct {
	Name      string  `json:"name" binding:"required,max=255"`
	Email     string  `json:"email" binding:"required,max=255"`
	Password  string  `json:"password" binding:"required,max=255"`
	StudentID *string `json:"student_id,omitempty" binding:"omitempty,max=50"`
}

func (s *Service) Register(ctx context.Context, in RegisterRequest) (SessionResponse, error) {
	acct, err := s.create(ctx, in, RoleUser)
	if err != nil {
		return SessionResponse{}, err
	}
	return s.session(acct)
}

func (s *Service) create(ctx context.Context, in RegisterRequest, role string) (*Account, error) {
	name := textnorm.Clean(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return nil, apperr.Invalid("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Invalid("invalid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperr.Invalid("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	acct := &Account{
		Name:         name,
		Email:        email,
		PasswordHash: sql.NullString{String: string(hash), Valid: true},
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if sid := textnorm.CleanPtr(in.StudentID); sid != nil {
		acct.StudentID = sql.NullString{String: *sid, Valid: true}
	}
	if err := s.store.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

func (s *Service) session(acct *Account) (SessionResponse, error) {
	token, err := s.tokens.Issue(acct.ID, acct.Role)
	if err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{Token: token, User: toAccountResponse(acct)}, nil
}

func (s *Service) Me(ctx context.Context, userID int64) (AccountResponse, error) {
	acct, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return AccountResponse{}, err
	}
	if acct == nil {
		return AccountResponse{}, apperr.NotFound("user not found")
	}
	return toAccountResponse(acct), nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	if len(next) < minPasswordLen {
		return apperr.Invalid("new password must be at least 6 characters")
	}
	acct, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if acct == nil {
		return apperr.NotFound("user not found")
	}
	if !acct.PasswordHash.Valid ||
		bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash.String), []byte(current)) != nil {
		return apperr.Unauthenticated("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	n, err := s.store.UpdatePassword(ctx, userID, string(hash))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// CreateAdmin creates an admin account, or promotes the existing account with that email.
func (s *Service) CreateAdmin(ctx context.Context, in RegisterRequest) (AccountResponse, error) {
	existing, err := s.store.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		return AccountResponse{}, err
	}
	if existing != nil {
		if _, err := s.store.UpdateRole(ctx, existing.ID, RoleAdmin); err != nil {
			return AccountResponse{}, err
		}
		existing.Role = RoleAdmin
		return toAccountResponse(existing), nil
	}
	acct, err := s.create(ctx, in, RoleAdmin)
	if err != nil {
		return AccountResponse{}, err
	}
	return toAccountResponse(acct), nil
}
