package app

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/zapgo/whatsapp-api/internal/client"
	"github.com/zapgo/whatsapp-api/internal/config"
)

// App holds shared application state and resources
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Manager *client.Manager

	StartTime time.Time // Track startup time for health checks
}

// NewApp creates a new App instance with initialized resources
func NewApp(cfg *config.Config, logger zerolog.Logger, manager *client.Manager) *App {
	return &App{
		Config:    cfg,
		Logger:    logger,
		Manager:   manager,
		StartTime: time.Now(),
	}
}
