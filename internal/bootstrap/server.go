package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	httpecho "github.com/mohammadpnp/catalog-sync/internal/interfaces/http/echo"
	"github.com/rs/zerolog"
)

func NewHTTPServer(a *App) *echo.Echo {
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))
	server.Use(requestLogger(a.Logger))

	syncHandler := httpecho.NewSyncHandler(a.StartSync, a.ProcessBatch, a.GetSyncJob, a.MatchUnmatched)
	webhookHandler := httpecho.NewWebhookHandler(a.HandleWebhook)
	inventoryHandler := httpecho.NewInventoryHandler(a.SearchInventory)

	httpecho.RegisterRoutes(server, httpecho.Handlers{
		Sync:      syncHandler,
		Webhook:   webhookHandler,
		Inventory: inventoryHandler,
	}, a.Config.Dispatch.TriggerToken)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	logger = logger.With().Str("component", "http").Logger()
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				event = logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// Serve runs the HTTP server, the in-process dispatcher and the stalled-job
// resumer until ctx is cancelled, then shuts them down.
func Serve(ctx context.Context, a *App) error {
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	a.StartDispatcher(workerCtx)
	a.Resumer.Start(workerCtx)

	server := NewHTTPServer(a)
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("port", a.Config.Port).Msg("http server listening")
		if err := server.Start(":" + a.Config.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	stopWorkers()
	return nil
}
