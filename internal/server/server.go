package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/config"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	srv    *http.Server
	app    *app.App
	config *config.Config
}

// NewServer creates a new server instance
func NewServer(app *app.App, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(app))
	r.Use(cors.New(config.GetCorsConfig()))
	r.Use(bodySizeLimit(config.RequestSizeLimit))

	return &Server{
		router: r,
		app:    app,
		config: config,
	}
}

// Router returns the gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:    ":" + s.config.ServerPort,
		Handler: s.router,
	}

	go func() {
		s.app.Logger.Info().Str("port", s.config.ServerPort).Msg("Servidor HTTP rodando")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.app.Logger.Error().Err(err).Msg("Server error")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}

	s.app.Logger.Info().Msg("Shutting down server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.app.Logger.Error().Err(err).Msg("Server forced to shutdown")
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.app.Logger.Info().Msg("Server exited")
	return nil
}

// bodySizeLimit caps request body reads at limit bytes.
func bodySizeLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
