package echo

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
)

type InventoryHandler struct {
	useCase app.SearchInventory
}

func NewInventoryHandler(useCase app.SearchInventory) *InventoryHandler {
	return &InventoryHandler{useCase: useCase}
}

func (h *InventoryHandler) Search(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: "limit must be an integer",
			}})
		}
		limit = parsed
	}

	out, err := h.useCase.Execute(c.Request().Context(), app.SearchInventoryInput{
		StoreID: c.Param("id"),
		Query:   c.QueryParam("q"),
		Limit:   limit,
	})
	if err != nil {
		return writeError(c, err, "failed to search inventory")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
