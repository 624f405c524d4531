package echo

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
)

const (
	HeaderShopifyHmac   = "X-Shopify-Hmac-Sha256"
	HeaderShopifyTopic  = "X-Shopify-Topic"
	HeaderShopifyDomain = "X-Shopify-Shop-Domain"
)

type WebhookHandler struct {
	useCase app.HandleWebhook
}

func NewWebhookHandler(useCase app.HandleWebhook) *WebhookHandler {
	return &WebhookHandler{useCase: useCase}
}

// Receive needs the raw body bytes; the signature covers them exactly.
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
			Code:    "bad_request",
			Message: "failed to read request body",
		}})
	}

	header := c.Request().Header
	out, err := h.useCase.Execute(c.Request().Context(), app.HandleWebhookInput{
		Topic:      header.Get(HeaderShopifyTopic),
		ShopDomain: header.Get(HeaderShopifyDomain),
		Signature:  header.Get(HeaderShopifyHmac),
		Body:       body,
	})
	if err != nil {
		return writeError(c, err, "failed to apply webhook")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
