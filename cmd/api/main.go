package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammadpnp/catalog-sync/internal/bootstrap"
	"github.com/mohammadpnp/catalog-sync/internal/config"
	"github.com/mohammadpnp/catalog-sync/internal/logging"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	logger := logging.New("info", "json")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = logging.New(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close(15 * time.Second)

	if err := bootstrap.Serve(ctx, a); err != nil {
		logger.Error().Err(err).Msg("server stopped")
	}
}
