package echo

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
)

type SyncHandler struct {
	startSync    app.StartSync
	processBatch app.ProcessBatch
	getSyncJob   app.GetSyncJob
	sweep        app.MatchUnmatched
}

type matchSweepRequest struct {
	AfterID int64 `json:"after_id"`
	Chain   bool  `json:"chain"`
}

func NewSyncHandler(startSync app.StartSync, processBatch app.ProcessBatch, getSyncJob app.GetSyncJob, sweep app.MatchUnmatched) *SyncHandler {
	return &SyncHandler{
		startSync:    startSync,
		processBatch: processBatch,
		getSyncJob:   getSyncJob,
		sweep:        sweep,
	}
}

func (h *SyncHandler) StartSync(c echo.Context) error {
	out, err := h.startSync.Execute(c.Request().Context(), app.StartSyncInput{StoreID: c.Param("id")})
	if err != nil {
		return writeError(c, err, "failed to start sync")
	}
	return c.JSON(http.StatusAccepted, apiResponse{Data: out})
}

// RunBatch processes one page of a job. The batch is detached from the
// request so a caller that stops waiting does not abort the page midway.
func (h *SyncHandler) RunBatch(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())

	out, err := h.processBatch.Execute(ctx, app.ProcessBatchInput{JobID: c.Param("id")})
	if err != nil {
		return writeError(c, err, "batch processing failed")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *SyncHandler) GetSyncJob(c echo.Context) error {
	out, err := h.getSyncJob.Execute(c.Request().Context(), app.GetSyncJobInput{JobID: c.Param("id")})
	if err != nil {
		return writeError(c, err, "failed to get sync job")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *SyncHandler) RunMatchSweep(c echo.Context) error {
	var req matchSweepRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, apiResponse{Error: &errorBody{
				Code:    "bad_request",
				Message: "invalid request body",
			}})
		}
	}

	ctx := context.WithoutCancel(c.Request().Context())
	out, err := h.sweep.Execute(ctx, app.MatchUnmatchedInput{
		StoreID: c.Param("id"),
		AfterID: req.AfterID,
		Chain:   req.Chain,
	})
	if err != nil {
		return writeError(c, err, "match sweep failed")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
