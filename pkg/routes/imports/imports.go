package imports

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/internal/repositories/importrecord"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/resolution"
)

// Register registers import batch routes
func Register(g *echo.Group) {
	g.POST("", CreateBatch)
	g.POST("/:batchId/run", RunBatch)
}

// CreateBatchRequest carries the raw rows of one ingested batch
type CreateBatchRequest struct {
	Records []struct {
		SupplierName string `json:"supplier_name"`
		BankName     string `json:"bank_name"`
	} `json:"records"`
}

// CreateBatch ingests raw records under a new batch id
func CreateBatch(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateBatchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Records) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "records are required")
	}

	ctx, repo, err := ectoinject.GetContext[*importrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	batchID := uuid.New().String()
	records := make([]*models.ImportRecord, 0, len(req.Records))
	for _, row := range req.Records {
		records = append(records, &models.ImportRecord{
			BatchID:         batchID,
			SupplierNameRaw: row.SupplierName,
			BankNameRaw:     row.BankName,
		})
	}

	if err := repo.CreateBatch(ctx, records); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"batch_id": batchID,
		"count":    len(records),
	})
}

// RunBatch runs auto-resolution over a batch's pending records
func RunBatch(c echo.Context) error {
	ctx := c.Request().Context()

	batchID := c.Param("batchId")
	if batchID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "batch id is required")
	}

	ctx, orchestrator, err := ectoinject.GetContext[*resolution.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := orchestrator.Run(ctx, batchID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
