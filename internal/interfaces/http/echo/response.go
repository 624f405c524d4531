package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Data  any        `json:"data,omitempty"`
	Error *errorBody `json:"error,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{app.ErrInvalidStoreID, http.StatusBadRequest, "invalid_store_id", "store id must be a valid UUID"},
	{app.ErrInvalidJobID, http.StatusBadRequest, "invalid_job_id", "job id must be a valid UUID"},
	{app.ErrInvalidQuery, http.StatusBadRequest, "invalid_query", "q must contain a card name"},
	{app.ErrInvalidWebhookPayload, http.StatusBadRequest, "invalid_payload", "webhook payload could not be decoded"},
	{app.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature", "webhook signature mismatch"},
	{app.ErrStoreNotFound, http.StatusNotFound, "not_found", "store not found"},
	{app.ErrSyncJobNotFound, http.StatusNotFound, "not_found", "sync job not found"},
	{app.ErrCountProducts, http.StatusBadGateway, "upstream_error", "failed to count upstream products"},
	{app.ErrUpstreamFetch, http.StatusBadGateway, "upstream_error", "upstream catalog fetch failed"},
}

func writeError(c echo.Context, err error, fallback string) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return c.JSON(m.status, apiResponse{Error: &errorBody{Code: m.code, Message: m.message}})
		}
	}
	return c.JSON(http.StatusInternalServerError, apiResponse{Error: &errorBody{
		Code:    "internal_error",
		Message: fallback,
	}})
}
