// Package registry exposes the administrative surface of the canonical
// entity registry: creating entities, listing them, and confirming the
// ones the auto-resolver created.
package registry

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/internal/repositories/entity"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
)

// Register registers entity registry routes
func Register(g *echo.Group) {
	g.POST("", Create)
	g.GET("", List)
	g.GET("/:id", Get)
	g.POST("/:id/confirm", Confirm)
}

// CreateRequest carries one new canonical entity
type CreateRequest struct {
	Family       models.Family `json:"family"`
	OfficialName string        `json:"official_name"`
	EnglishName  *string       `json:"english_name,omitempty"`
	ShortCode    *string       `json:"short_code,omitempty"`
}

// newEntity derives the stored forms of a create request. Entities
// created through this surface are human-entered, so they start out
// confirmed.
func newEntity(req CreateRequest) (*models.CanonicalEntity, error) {
	if !req.Family.IsValid() {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}
	normalized := normalizers.OrgName(req.OfficialName)
	if normalized == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "official_name is required")
	}

	e := &models.CanonicalEntity{
		Family:         req.Family,
		OfficialName:   req.OfficialName,
		NormalizedName: normalized,
		CompactName:    normalizers.CompactKey(req.OfficialName),
		Confirmed:      true,
	}
	if req.EnglishName != nil {
		english := normalizers.OrgName(*req.EnglishName)
		if english == "" {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "english_name must contain letters or digits")
		}
		e.EnglishName = req.EnglishName
		e.NormalizedEnglishName = &english
	}
	if req.ShortCode != nil {
		if req.Family != models.FamilyBank {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "short_code is only valid for banks")
		}
		code := normalizers.ShortCode(*req.ShortCode)
		if code == "" {
			return nil, httperror.NewHTTPError(http.StatusBadRequest, "short_code must contain letters or digits")
		}
		e.ShortCode = &code
	}
	return e, nil
}

// Create registers a new canonical entity
func Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	e, err := newEntity(req)
	if err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*entity.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Create(ctx, e); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, e)
}

// List retrieves every live entity in a family
func List(c echo.Context) error {
	ctx := c.Request().Context()

	family := models.Family(c.QueryParam("family"))
	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}

	ctx, repo, err := ectoinject.GetContext[*entity.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entities, err := repo.ListByFamily(ctx, family)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"entities": entities})
}

// Get retrieves one entity by id
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "entity id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*entity.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	e, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, e)
}

// Confirm marks an auto-created entity as human-confirmed
func Confirm(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "entity id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*entity.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Confirm(ctx, id); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "confirmed"})
}
