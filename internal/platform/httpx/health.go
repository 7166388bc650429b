package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz: プロセスが生きているかだけ返す
func Healthz(c *gin.Context) { c.String(http.StatusOK, "ok") }

// Health reports version and database reachability.
func Health(version string, db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status, code, dbStatus := "ok", http.StatusOK, "ok"
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				status, code, dbStatus = "degraded", http.StatusServiceUnavailable, "unreachable"
			}
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   version,
			"database":  dbStatus,
		})
	}
}
