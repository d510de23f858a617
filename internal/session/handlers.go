package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/client"
)

// Handlers contains HTTP handlers for session management
type Handlers struct {
	app *app.App
}

// NewHandlers creates a new session handlers instance
func NewHandlers(app *app.App) *Handlers {
	return &Handlers{app: app}
}

// RegisterHandler creates a new session and blocks until its pairing QR
// code is available or the configured wait runs out.
func (h *Handlers) RegisterHandler(c *gin.Context) {
	id, err := h.app.Manager.Register("")
	if err != nil {
		h.app.Logger.Error().Err(err).Msg("Error registering client")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erro ao gerar QR Code"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.app.Config.QRWaitTimeout)
	defer cancel()

	qrCode, err := h.app.Manager.WaitForQR(ctx, id)
	if err != nil {
		h.app.Logger.Error().Err(err).Str("client_id", id).Msg("Error registering client")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Erro ao gerar QR Code"})
		return
	}

	c.JSON(http.StatusOK, RegisterResponse{Success: true, ClientID: id, QRCode: qrCode})
}

// ClientsHandler lists every registered session with its pending QR code.
func (h *Handlers) ClientsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.app.Manager.List())
}

// QRCodeHandler returns the current QR code for a session, if any.
func (h *Handlers) QRCodeHandler(c *gin.Context) {
	uuid := c.Param("uuid")

	qrCode, ok := h.app.Manager.GetQR(uuid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "QR Code não encontrado ou cliente já autenticado",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "qrCode": qrCode})
}

// DisconnectHandler terminates a session.
func (h *Handlers) DisconnectHandler(c *gin.Context) {
	uuid := c.Param("uuid")

	if !h.app.Manager.Disconnect(uuid) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Cliente não encontrado"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Cliente %s desconectado com sucesso", uuid),
	})
}

// AddCallbackURLHandler sets a session's callback URL.
func (h *Handlers) AddCallbackURLHandler(c *gin.Context) {
	var req AddCallbackURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid parameters: clientId and callbackURL must be strings",
		})
		return
	}

	if req.ClientID == "" || req.CallbackURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Missing parameters: clientId and callbackURL are required",
		})
		return
	}

	if err := h.app.Manager.AddCallbackURL(req.ClientID, req.CallbackURL); err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
			return
		}
		h.app.Logger.Error().Err(err).Msg("Error adding callback URL")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Callback URL added successfully"})
}
