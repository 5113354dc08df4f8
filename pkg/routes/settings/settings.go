package settings

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	appsettings "github.com/Ramsey-B/sorrel/pkg/settings"
)

// Register registers settings routes
func Register(g *echo.Group) {
	g.GET("", Get)
	g.POST("/reload", Reload)
}

// Get returns the active matching settings
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	_, store, err := ectoinject.GetContext[*appsettings.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	return c.JSON(http.StatusOK, store.Current())
}

// Reload re-reads the settings from the environment. A failed validation
// keeps the previous settings active and reports 422.
func Reload(c echo.Context) error {
	ctx := c.Request().Context()

	_, store, err := ectoinject.GetContext[*appsettings.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	current, err := store.Reload()
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"message": err.Error(),
			"active":  current,
		})
	}

	return c.JSON(http.StatusOK, current)
}
