package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing store. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health returns the /healthz handler. A nil db always reports OK.
func Health(db Pinger, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log.DebugContext(c.Request.Context(), "Performing health checks...")
		if db != nil {
			if err := db.Ping(c.Request.Context()); err != nil {
				log.ErrorContext(c.Request.Context(), "DB ping failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DB ping failed"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
