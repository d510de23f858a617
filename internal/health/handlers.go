package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
)

// Handlers contains HTTP handlers for health checks
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new health handlers instance
func NewHandlers(app *app.App) *Handlers {
	return &Handlers{app: app}
}

// HealthCheckHandler responds with a bare OK for load balancer probes.
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// RootHandler reports uptime and session counts for Docker health checks.
func (h *Handlers) RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptime":        time.Since(h.app.StartTime).String(),
		"session_count": len(h.app.Manager.List()),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}
