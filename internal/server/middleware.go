package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
)

// requestLogger writes one access log line per request through the shared
// structured logger.
func requestLogger(app *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		app.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
