package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/client"
)

// Handlers contains HTTP handlers for media
type Handlers struct {
	app     *app.App
	service *Service
}

// NewHandlers creates a new media handlers instance
func NewHandlers(app *app.App) *Handlers {
	return &Handlers{
		app:     app,
		service: NewService(app.Logger),
	}
}

// SendMediaHandler delivers an attachment through a registered session.
func (h *Handlers) SendMediaHandler(c *gin.Context) {
	var req SendMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "clientId, numero, and either mediaData or mediaUrl are required",
		})
		return
	}

	if req.ClientID == "" || req.Numero == "" || (req.MediaData == "" && req.MediaURL == "") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "clientId, numero, and either mediaData or mediaUrl are required",
		})
		return
	}

	if !h.app.Manager.Exists(req.ClientID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
		return
	}

	media, err := h.service.Normalize(req)
	if err != nil {
		if errors.Is(err, ErrInvalidMedia) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.app.Logger.Error().Err(err).Msg("Error sending media")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error sending media"})
		return
	}

	err = h.app.Manager.SendMedia(c.Request.Context(), req.ClientID, req.Numero, media)
	if err != nil {
		if errors.Is(err, client.ErrClientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Client not found"})
			return
		}
		h.app.Logger.Error().Err(err).Str("client_id", req.ClientID).Msg("Error sending media")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error sending media"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Media sent successfully"})
}
