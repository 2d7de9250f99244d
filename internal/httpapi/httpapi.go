// Package httpapi is the Request Router (§4.8): a stateless Echo dispatcher
// that does method/path matching, JSON in/out, cookie parsing, and error
// shaping, then hands off to the engines. It never embeds engine logic —
// every handler below is a thin translation between an HTTP request and a
// call into auth.Service, mactrace.Engine, vlanchange.Engine, or
// inventory.Reader.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/dellswitch/switchctl/internal/audit"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/hostload"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/mactrace"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
	"github.com/dellswitch/switchctl/internal/vlanchange"
)

// Version is the value reported on /health; set at build time via
// -ldflags, defaulting to "dev" for local builds.
var Version = "dev"

// Config is every collaborator the router dispatches to. All fields are
// required except Logger, which falls back to zap.NewNop(), and HostLoad:
// with a nil guard every request is admitted and /cpu-status reports green.
type Config struct {
	Auth         *auth.Service
	MacTrace     *mactrace.Engine
	VlanChange   *vlanchange.Engine
	Inventory    inventory.Reader
	HostLoad     *hostload.Guard
	Audit        audit.Sink
	Logger       *zap.Logger
	CookieConfig appmiddleware.AuthMiddlewareConfig
}

// Router holds the wiring Register needs; it carries no request-scoped
// state of its own, matching §4.8's "stateless dispatcher" requirement.
type Router struct {
	cfg Config
}

// New constructs a Router. Panics if a required collaborator is missing —
// a router wired wrong is a startup-time defect, not a request-time one.
func New(cfg Config) *Router {
	if cfg.Auth == nil || cfg.MacTrace == nil || cfg.VlanChange == nil || cfg.Inventory == nil || cfg.Audit == nil {
		panic("httpapi: Config is missing a required collaborator")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Router{cfg: cfg}
}

// Register wires every route in §6's table onto e, in the gate order §4.8
// mandates: auth → role → host-load → engine.
func (rt *Router) Register(e *echo.Echo) {
	e.HTTPErrorHandler = httpErrorHandler
	e.Use(requestIDMiddleware)

	e.GET("/health", rt.handleHealth)

	e.POST("/login", rt.handleLogin)

	authCfg := rt.cfg.CookieConfig
	authCfg.JWTService = rt.cfg.Auth.JWTService()
	authCfg.SessionValidator = rt.sessionValidator
	if authCfg.Skipper == nil {
		authCfg.Skipper = appmiddleware.DefaultSkipper
	}
	authMW := appmiddleware.AuthMiddleware(authCfg)

	viewer := e.Group("", authMW, appmiddleware.RoleRequiredMiddleware(auth.RoleViewer))
	viewer.POST("/logout", rt.handleLogout)
	viewer.POST("/session/keepalive", rt.handleSessionKeepalive)
	viewer.POST("/session/check", rt.handleSessionCheck)
	viewer.POST("/trace", rt.handleTrace, hostLoadMiddleware(rt.cfg.HostLoad))

	netAdmin := e.Group("/api", authMW, appmiddleware.RoleRequiredMiddleware(auth.RoleNetAdmin), hostLoadMiddleware(rt.cfg.HostLoad))
	netAdmin.POST("/vlan_config", rt.handleVlanConfig)
	netAdmin.POST("/vlan/check", rt.handleVlanCheck)
	netAdmin.POST("/port/status", rt.handlePortStatus)
	netAdmin.GET("/sites", rt.handleSites)
	netAdmin.GET("/floors", rt.handleFloors)
	netAdmin.GET("/switches", rt.handleSwitches)

	e.GET("/cpu-status", rt.handleCPUStatus, authMW, appmiddleware.RoleRequiredMiddleware(auth.RoleNetAdmin))
}

func (rt *Router) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (rt *Router) handleCPUStatus(c echo.Context) error {
	if rt.cfg.HostLoad == nil {
		return c.JSON(http.StatusOK, hostload.Status{State: hostload.Green})
	}
	return c.JSON(http.StatusOK, rt.cfg.HostLoad.Snapshot())
}

// sessionValidator bridges auth.Service.ValidateSession to the narrower
// shape internal/middleware/auth.go's AuthMiddlewareConfig expects.
func (rt *Router) sessionValidator(ctx context.Context, sessionID string) (*appmiddleware.SessionInfo, error) {
	session, err := rt.cfg.Auth.ValidateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &appmiddleware.SessionInfo{
		ID:        session.ID,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
