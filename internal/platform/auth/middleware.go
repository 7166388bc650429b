package auth

import (
	"github.com/gin-gonic/gin"

	"library-backend/internal/platform/apperr"
)

// RequireAuth: resolver で身元を解決して context に詰める
func RequireAuth(resolver Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := resolver.Resolve(c.Request)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		WithIdentity(c, id)
		c.Next()
	}
}

// RequireRole: 例) admin のみ許可したい時に追加
func RequireRole(roles ...string) gin.HandlerFunc {
	roleSet := make(map[string]struct{})
	for _, r := range roles {
		if r == "" {
			continue
		}
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := Current(c)
		if !ok {
			apperr.Abort(c, apperr.Unauthenticated("not authenticated"))
			return
		}
		if _, allowed := roleSet[id.Role]; !allowed {
			apperr.Abort(c, apperr.Forbidden("forbidden"))
			return
		}
		c.Next()
	}
}
