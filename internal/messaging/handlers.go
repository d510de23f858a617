package messaging

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/client"
)

// Handlers contains HTTP handlers for messaging
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new messaging handlers instance
func NewHandlers(app *app.App) *Handlers {
	return &Handlers{app: app}
}

// SendMessageHandler delivers a text message through a registered session.
// Sends against a registered-but-unauthenticated session are attempted and
// the gateway error surfaced; only a missing registry entry is a 404.
func (h *Handlers) SendMessageHandler(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Número, mensagem e clientId são necessários"})
		return
	}

	if req.Numero == "" || req.Mensagem == "" || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Número, mensagem e clientId são necessários"})
		return
	}

	err := h.app.Manager.SendText(c.Request.Context(), req.ClientID, req.Numero, req.Mensagem)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cliente não encontrado"})
			return
		}
		h.app.Logger.Error().Err(err).Str("client_id", req.ClientID).Msg("Erro ao enviar mensagem")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erro ao enviar mensagem"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mensagem enviada com sucesso"})
}
