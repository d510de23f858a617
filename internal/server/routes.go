package server

import (
	"github.com/zapgo/whatsapp-api/internal/health"
	"github.com/zapgo/whatsapp-api/internal/media"
	"github.com/zapgo/whatsapp-api/internal/messaging"
	"github.com/zapgo/whatsapp-api/internal/session"
)

// SetupRoutes configures all the routes for the application
func (s *Server) SetupRoutes() {
	// Register health check handlers
	healthHandlers := health.NewHandlers(s.app)
	s.router.GET("/", healthHandlers.RootHandler)
	s.router.GET("/health", healthHandlers.HealthCheckHandler)

	// Register session handlers
	sessionHandlers := session.NewHandlers(s.app)
	s.router.GET("/register", sessionHandlers.RegisterHandler)
	s.router.GET("/clients", sessionHandlers.ClientsHandler)
	s.router.GET("/getQRCode/:uuid", sessionHandlers.QRCodeHandler)
	s.router.DELETE("/disconnect/:uuid", sessionHandlers.DisconnectHandler)
	s.router.POST("/addCallbackUrl", sessionHandlers.AddCallbackURLHandler)

	// Register messaging handlers
	messagingHandlers := messaging.NewHandlers(s.app)
	s.router.POST("/sendMessage", messagingHandlers.SendMessageHandler)

	// Register media handlers
	mediaHandlers := media.NewHandlers(s.app)
	s.router.POST("/sendMedia", mediaHandlers.SendMediaHandler)
}
