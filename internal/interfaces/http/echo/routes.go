package echo

import (
	"crypto/subtle"
	"net/http"

	e "github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const triggerTokenLookup = "header:X-Trigger-Token"

type Handlers struct {
	Sync      *SyncHandler
	Webhook   *WebhookHandler
	Inventory *InventoryHandler
}

// RegisterRoutes mounts the API. Trigger routes require the trigger token
// when one is configured.
func RegisterRoutes(server *e.Echo, h Handlers, triggerToken string) {
	api := server.Group("/api/v1")

	var trigger []e.MiddlewareFunc
	if triggerToken != "" {
		trigger = append(trigger, triggerAuth(triggerToken))
	}

	if h.Sync != nil {
		api.POST("/stores/:id/syncs", h.Sync.StartSync)
		api.GET("/sync-jobs/:id", h.Sync.GetSyncJob)
		api.POST("/sync-jobs/:id/batches", h.Sync.RunBatch, trigger...)
		api.POST("/stores/:id/match-sweeps", h.Sync.RunMatchSweep, trigger...)
	}
	if h.Inventory != nil {
		api.GET("/stores/:id/items", h.Inventory.Search)
	}
	if h.Webhook != nil {
		server.POST("/webhooks/shopify", h.Webhook.Receive)
	}
}

func triggerAuth(token string) e.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: triggerTokenLookup,
		Validator: func(key string, c e.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(err error, c e.Context) error {
			return c.JSON(http.StatusUnauthorized, apiResponse{Error: &errorBody{
				Code:    "unauthorized",
				Message: "missing or invalid trigger token",
			}})
		},
	})
}
