// Package blocks exposes a read view over blocked associations, so
// reviewers can see why an entity never appears for a given input.
package blocks

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/internal/repositories/blocklist"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/normalizers"
)

// Register registers blocklist routes
func Register(g *echo.Group) {
	g.GET("", List)
}

// List retrieves the block rows for an input. The input is normalized
// the same way resolution normalizes it, so callers can pass the raw
// form they see in their records.
func List(c echo.Context) error {
	ctx := c.Request().Context()

	family := models.Family(c.QueryParam("family"))
	if !family.IsValid() {
		return httperror.NewHTTPError(http.StatusBadRequest, "family must be supplier or bank")
	}
	normalized := normalizers.OrgName(c.QueryParam("input"))
	if normalized == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "input is required")
	}

	ctx, repo, err := ectoinject.GetContext[*blocklist.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	list, err := repo.ListByInput(ctx, family, normalized)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"blocks": list})
}
