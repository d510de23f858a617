package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zapgo/whatsapp-api/internal/app"
	"github.com/zapgo/whatsapp-api/internal/callback"
	"github.com/zapgo/whatsapp-api/internal/cleanup"
	"github.com/zapgo/whatsapp-api/internal/client"
	"github.com/zapgo/whatsapp-api/internal/config"
	"github.com/zapgo/whatsapp-api/internal/gateway"
	"github.com/zapgo/whatsapp-api/internal/server"
	"github.com/zapgo/whatsapp-api/pkg/logger"
)

func main() {
	cfg := config.NewConfig()

	log, err := logger.Setup(cfg.LogDir)
	if err != nil {
		log = logger.SetupFallback()
	}
	defer logger.Close()

	log.Info().Str("config", cfg.String()).Msg("Starting WhatsApp session API")

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
	}

	gw := gateway.NewWhatsmeowGateway(cfg.DataDir, log)
	store := client.NewStore(cfg.ClientsFilePath, log)
	dispatcher := callback.NewDispatcher(log)
	manager := client.NewManager(gw, store, dispatcher, cfg.MessagePrefix, cfg.QRPollInterval, log)

	// Reconnect every persisted session before the janitor's first sweep
	// and before accepting traffic. Restore returns with all persisted ids
	// registered, so the sweep never mistakes their stores for orphans.
	manager.Restore()

	application := app.NewApp(cfg, log, manager)

	janitorCtx, cancelJanitor := context.WithCancel(context.Background())
	defer cancelJanitor()
	janitor := cleanup.NewJanitor(cfg.DataDir, cfg.CleanupInterval, manager, log)
	janitor.Start(janitorCtx)

	srv := server.NewServer(application, cfg)
	srv.SetupRoutes()
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	cancelJanitor()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
