// Package aliases exposes curated alternative-name management. Learned
// aliases are written only by the learning loop; this surface is for the
// ones administrators enter by hand.
package aliases

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/internal/repositories/alias"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
)

// Register registers alias routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("", List)
	g.DELETE("/:id", Delete)
}

// CreateRequest carries one curated alias
type CreateRequest struct {
	Family   models.Family `json:"family"`
	EntityID string        `json:"entity_id"`
	Name     string        `json:"name"`
}

// newAlias derives the stored forms of a create request. Provenance and
// identifiers are filled by the repository.
func newAlias(req CreateRequest) (*models.AlternativeName, error) {
	if !req.Family.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}
	if req.EntityID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "entity_id is required")
	}
	normalized := normalizers.OrgName(req.Name)
	if normalized == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	return &models.AlternativeName{
		Family:         req.Family,
		EntityID:       req.EntityID,
		Name:           req.Name,
		NormalizedName: normalized,
	}, nil
}

// Create registers a curated alias for an entity
func Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := newAlias(req)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*alias.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Create(ctx, a); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, a)
}

// List retrieves every alias in a family
func List(c echo.Context) error {
	ctx := c.Request().Context()

	family := models.Family(c.QueryParam("family"))
	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}

	ctx, repo, err := ectoinject.GetContext[*alias.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	list, err := repo.ListByFamily(ctx, family)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"aliases": list})
}

// Delete removes an alias by id
func Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "alias id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*alias.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
