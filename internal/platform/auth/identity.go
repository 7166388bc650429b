package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	CtxUserIDKey   = "user_id"
	CtxRoleKey     = "role"
	ctxIdentityKey = "identity"
)

// Identity is who made the request, as resolved by a Resolver.
type Identity struct {
	UserID int64
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Resolver resolves an inbound request to an Identity or fails with UNAUTHENTICATED.
// Callers trust the result and do not re-verify credentials.
type Resolver interface {
	Resolve(r *http.Request) (Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) (Identity, error)

func (f ResolverFunc) Resolve(r *http.Request) (Identity, error) { return f(r) }

// bearerToken: Authorization: Bearer <token>
func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", apperr.Unauthenticated("missing Authorization header")
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperr.Unauthenticated("invalid Authorization header")
	}
	tok := strings.TrimSpace(parts[1])
	if tok == "" {
		return "", apperr.Unauthenticated("empty token")
	}
	return tok, nil
}

// Current returns the identity stored by RequireAuth.
func Current(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// WithIdentity stores id on the context the way RequireAuth does.
func WithIdentity(c *gin.Context, id Identity) {
	c.Set(ctxIdentityKey, id)
	c.Set(CtxUserIDKey, id.UserID)
	c.Set(CtxRoleKey, id.Role)
}
