package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
)

type traceRequest struct {
	Site  string `json:"site"`
	Floor string `json:"floor"`
	MAC   string `json:"mac"`
}

func (rt *Router) handleTrace(c echo.Context) error {
	var req traceRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.New(apperr.ParseFailure, "malformed trace body"))
	}

	user := appmiddleware.UserFromContext(c.Request().Context())
	if user == nil {
		return writeErr(c, apperr.New(apperr.Unauthenticated, "no authenticated principal"))
	}

	result, err := rt.cfg.MacTrace.Trace(c.Request().Context(), req.Site, req.Floor, req.MAC, user.Role)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
