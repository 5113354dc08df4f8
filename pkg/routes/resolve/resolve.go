package resolve

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/sorrel/pkg/appcontext"
	"github.com/Ramsey-B/sorrel/pkg/models"
	"github.com/Ramsey-B/sorrel/pkg/resolution"
)

// Register registers resolution routes
func Register(g *echo.Group) {
	g.POST("/resolve", Resolve)
	g.POST("/match", MatchFast)
	g.POST("/decisions", RecordDecision)
	g.POST("/rejections", RecordRejection)
}

// ResolveRequest carries one raw name to resolve
type ResolveRequest struct {
	Family  models.Family `json:"family"`
	RawName string        `json:"raw_name"`
}

// DecisionRequest confirms a (raw name -> entity) mapping
type DecisionRequest struct {
	Family   models.Family          `json:"family"`
	RawName  string                 `json:"raw_name"`
	EntityID string                 `json:"entity_id"`
	Source   models.CandidateSource `json:"source"`
}

// RejectionRequest blocks a (raw name, entity) association
type RejectionRequest struct {
	Family   models.Family `json:"family"`
	RawName  string        `json:"raw_name"`
	EntityID string        `json:"entity_id"`
}

// Resolve returns the ranked candidate list for a raw name
func Resolve(c echo.Context) error {
	ctx := c.Request().Context()

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, service, err := ectoinject.GetContext[*resolution.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	result, err := service.Resolve(ctx, req.Family, req.RawName)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// MatchFast returns the single obvious winner for a raw name, if any
func MatchFast(c echo.Context) error {
	ctx := c.Request().Context()

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, service, err := ectoinject.GetContext[*resolution.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	match, err := service.MatchFast(ctx, req.Family, req.RawName)
	if err != nil {
		return err
	}
	if match == nil {
		return c.JSON(http.StatusOK, map[string]any{"match": nil})
	}

	return c.JSON(http.StatusOK, map[string]any{"match": match})
}

// RecordDecision records a reviewer's confirmed mapping
func RecordDecision(c echo.Context) error {
	ctx := c.Request().Context()

	var req DecisionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, service, err := ectoinject.GetContext[*resolution.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	actor := appcontext.GetUserID(ctx)
	if actor == "" {
		actor = "unknown"
	}

	if err := service.RecordDecision(ctx, req.Family, req.RawName, req.EntityID, req.Source, actor); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

// RecordRejection permanently blocks a (raw name, entity) association
func RecordRejection(c echo.Context) error {
	ctx := c.Request().Context()

	var req RejectionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, service, err := ectoinject.GetContext[*resolution.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := service.RecordRejection(ctx, req.Family, req.RawName, req.EntityID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "blocked"})
}
