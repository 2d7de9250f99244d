package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
)

func (rt *Router) handleSites(c echo.Context) error {
	sites, err := rt.cfg.Inventory.Sites(c.Request().Context())
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, sites)
}

func (rt *Router) handleFloors(c echo.Context) error {
	site := c.QueryParam("site")
	if site == "" {
		return writeErr(c, apperr.New(apperr.ParseFailure, "site query parameter is required"))
	}
	floors, err := rt.cfg.Inventory.Floors(c.Request().Context(), site)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, floors)
}

func (rt *Router) handleSwitches(c echo.Context) error {
	site := c.QueryParam("site")
	floor := c.QueryParam("floor")
	switches, err := rt.cfg.Inventory.Switches(c.Request().Context(), site, floor)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, switches)
}
