package httpx

import (
	"github.com/gin-gonic/gin"
	ulid "github.com/oklog/ulid/v2"

	"library-backend/internal/platform/apperr"
)

const HeaderRequestID = "X-Request-ID"

// RequestID propagates an incoming X-Request-ID or assigns a new ULID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		c.Set(apperr.RequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
