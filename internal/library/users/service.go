package users

import (
	"context"
	"database/sql"
	"log"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"library-backend/internal/platform/apperr"
	"library-backend/internal/platform/auth"
	"library-backend/internal/platform/paging"
	"library-backend/internal/platform/textnorm"
)

const minPasswordLen = 6

// Ledger deletes users; it refuses while the user has open checkouts.
type Ledger interface {
	DeleteUser(ctx context.Context, userID int64) error
}

type Service struct {
	store  Store
	ledger Ledger
	now    func() time.Time
}

func NewService(store Store, ledger Ledger) *Service {
	return &Service{store: store, ledger: ledger, now: time.Now}
}

var _ auth.Directory = (*Service)(nil)

func (s *Service) Get(ctx context.Context, id int64) (UserResponse, error) {
	if id <= 0 {
		return UserResponse{}, apperr.Invalid("user id must be positive")
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	if u == nil {
		return UserResponse{}, apperr.NotFound("user not found")
	}
	return toResponse(u), nil
}

func (s *Service) List(ctx context.Context, q Query, p paging.Page) (ListResponse, error) {
	if err := p.Validate(); err != nil {
		return ListResponse{}, err
	}
	if q.Role != "" && !validRole(q.Role) {
		return ListResponse{}, apperr.Invalid("role must be user or admin")
	}
	q.Q = textnorm.Clean(q.Q)
	rows, total, err := s.store.List(ctx, q, p)
	if err != nil {
		return ListResponse{}, err
	}
	out := make([]UserResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toResponse(&rows[i]))
	}
	return ListResponse{Users: out, Pagination: p.Of(total)}, nil
}

func (s *Service) Create(ctx context.Context, in CreateUserRequest) (UserResponse, error) {
	now := s.now().UTC()
	u := &User{Role: auth.RoleUser, CreatedAt: now, UpdatedAt: now}
	if in.Role != "" {
		if !validRole(in.Role) {
			return UserResponse{}, apperr.Invalid("role must be user or admin")
		}
		u.Role = in.Role
	}
	if err := apply(u, UpdateUserRequest{Name: &in.Name, Email: &in.Email, StudentID: in.StudentID}); err != nil {
		return UserResponse{}, err
	}

	var hash sql.NullString
	if in.Password != nil {
		if len(*in.Password) < minPasswordLen {
			return UserResponse{}, apperr.Invalid("password must be at least 6 characters")
		}
		h, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return UserResponse{}, err
		}
		hash = sql.NullString{String: string(h), Valid: true}
	}

	if err := s.store.Create(ctx, u, hash); err != nil {
		return UserResponse{}, err
	}
	return toResponse(u), nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateUserRequest) (UserResponse, error) {
	if id <= 0 {
		return UserResponse{}, apperr.Invalid("user id must be positive")
	}
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return UserResponse{}, err
	}
	if u == nil {
		return UserResponse{}, apperr.NotFound("user not found")
	}
	if err := apply(u, in); err != nil {
		return UserResponse{}, err
	}
	u.UpdatedAt = s.now().UTC()
	ok, err := s.store.Update(ctx, u)
	if err != nil {
		return UserResponse{}, err
	}
	if !ok {
		return UserResponse{}, apperr.NotFound("user not found")
	}
	return toResponse(u), nil
}

func (s *Service) SetRole(ctx context.Context, id int64, role string) (UserResponse, error) {
	if id <= 0 {
		return UserResponse{}, apperr.Invalid("user id must be positive")
	}
	if !validRole(role) {
		return UserResponse{}, apperr.Invalid("role must be user or admin")
	}
	ok, err := s.store.UpdateRole(ctx, id, role)
	if err != nil {
		return UserResponse{}, err
	}
	if !ok {
		return UserResponse{}, apperr.NotFound("user not found")
	}
	log.Printf("[INFO] role changed user_id=%d role=%s", id, role)
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.ledger.DeleteUser(ctx, id)
}

// EnsureExternal returns the local user for an external account, linking by
// email or creating a role=user account on first sign-in.
func (s *Service) EnsureExternal(ctx context.Context, uid, email, name string) (auth.Identity, error) {
	if uid == "" {
		return auth.Identity{}, apperr.Unauthenticated("token has no subject")
	}
	u, err := s.store.GetByExternalUID(ctx, uid)
	if err != nil {
		return auth.Identity{}, err
	}
	if u != nil {
		return auth.Identity{UserID: u.ID, Role: u.Role}, nil
	}

	email = strings.ToLower(textnorm.Clean(email))
	u, err = s.store.GetByEmail(ctx, email)
	if err != nil {
		return auth.Identity{}, err
	}
	if u != nil {
		if u.ExternalUID.Valid && u.ExternalUID.String != uid {
			return auth.Identity{}, apperr.Forbidden("email is linked to another account")
		}
		if !u.ExternalUID.Valid {
			if _, err := s.store.LinkExternal(ctx, u.ID, uid); err != nil {
				return auth.Identity{}, err
			}
		}
		return auth.Identity{UserID: u.ID, Role: u.Role}, nil
	}

	now := s.now().UTC()
	u = &User{
		Name:        textnorm.Clean(name),
		Email:       email,
		Role:        auth.RoleUser,
		ExternalUID: sql.NullString{String: uid, Valid: true},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if u.Name == "" {
		u.Name = email
	}
	if err := s.store.Create(ctx, u, sql.NullString{}); err != nil {
		// 同時に初回ログインした別リクエストが先に作成した
		if apperr.Is(err, apperr.CodeConflict) {
			if again, gerr := s.store.GetByExternalUID(ctx, uid); gerr == nil && again != nil {
				return auth.Identity{UserID: again.ID, Role: again.Role}, nil
			}
		}
		return auth.Identity{}, err
	}
	log.Printf("[INFO] provisioned external user id=%d", u.ID)
	return auth.Identity{UserID: u.ID, Role: u.Role}, nil
}

func validRole(r string) bool { return r == auth.RoleUser || r == auth.RoleAdmin }

func apply(u *User, in UpdateUserRequest) error {
	if in.Name != nil {
		v := textnorm.Clean(*in.Name)
		if v == "" {
			return apperr.Invalid("name is required")
		}
		u.Name = v
	}
	if in.Email != nil {
		v := strings.ToLower(textnorm.Clean(*in.Email))
		if _, err := mail.ParseAddress(v); err != nil || !strings.Contains(v, "@") {
			return apperr.Invalid("invalid email")
		}
		u.Email = v
	}
	if in.StudentID != nil {
		if v := textnorm.Clean(*in.StudentID); v != "" {
			u.StudentID = sql.NullString{String: v, Valid: true}
		} else {
			u.StudentID = sql.NullString{}
		}
	}
	return nil
}

func toResponse(u *User) UserResponse {
	r := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.StudentID.Valid {
		v := u.StudentID.String
		r.StudentID = &v
	}
	return r
}
