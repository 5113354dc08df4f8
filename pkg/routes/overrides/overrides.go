// Package overrides exposes administrator override management. An
// override forces one normalized input onto one entity ahead of all
// scoring, so the surface is deliberately small: upsert, list, delete.
package overrides

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/internal/repositories/override"
	"github.com/Ramsey-B/sorrel/pkg/appcontext"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
)

// Register registers override routes
func Register(g *echo.Group) {
	g.PUT("", Upsert)
	g.GET("", List)
	g.DELETE("/:id", Delete)
}

// UpsertRequest forces a raw name onto an entity
type UpsertRequest struct {
	Family   models.Family `json:"family"`
	RawName  string        `json:"raw_name"`
	EntityID string        `json:"entity_id"`
}

// newOverride derives the stored forms of an upsert request
func newOverride(req UpsertRequest, createdBy string) (*models.NameOverride, error) {
	if !req.Family.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}
	if req.EntityID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "entity_id is required")
	}
	normalized := normalizers.OrgName(req.RawName)
	if normalized == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "raw_name is required")
	}

	o := &models.NameOverride{
		Family:         req.Family,
		RawName:        req.RawName,
		NormalizedName: normalized,
		EntityID:       req.EntityID,
	}
	if createdBy != "" {
		o.CreatedBy = &createdBy
	}
	return o, nil
}

// Upsert creates or repoints an override
func Upsert(c echo.Context) error {
	ctx := c.Request().Context()

	var req UpsertRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	o, err := newOverride(req, appcontext.GetUserID(ctx))
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*override.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Upsert(ctx, o); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, o)
}

// List retrieves every override in a family
func List(c echo.Context) error {
	ctx := c.Request().Context()

	family := models.Family(c.QueryParam("family"))
	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}

	ctx, repo, err := ectoinject.GetContext[*override.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	list, err := repo.ListByFamily(ctx, family)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"overrides": list})
}

// Delete removes an override by id
func Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "override id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*override.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
