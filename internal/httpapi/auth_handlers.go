package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/auth"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Role             string `json:"role"`
	ExpiresAt        string `json:"expires_at"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

func (rt *Router) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return writeErr(c, apperr.New(apperr.ParseFailure, "malformed login body"))
	}

	result, err := rt.cfg.Auth.Login(c.Request().Context(), auth.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return writeErr(c, apperr.New(apperr.Unauthenticated, "invalid username or password"))
	}

	appmiddleware.SetAuthToken(c, result.Token, result.ExpiresAt, rt.cfg.CookieConfig)
	return c.JSON(http.StatusOK, loginResponse{
		Role:             string(result.User.Role),
		ExpiresAt:        result.ExpiresAt.UTC().Format(rfc3339),
		RemainingSeconds: int64(time.Until(result.ExpiresAt).Seconds()),
	})
}

func (rt *Router) handleLogout(c echo.Context) error {
	session := appmiddleware.SessionFromContext(c.Request().Context())
	if session == nil {
		appmiddleware.ClearAuthCookies(c, rt.cfg.CookieConfig)
		return c.NoContent(http.StatusNoContent)
	}
	if err := rt.cfg.Auth.Logout(c.Request().Context(), session.ID, c.RealIP(), c.Request().UserAgent()); err != nil {
		return writeErr(c, apperr.Wrap(apperr.Internal, "logout failed", err))
	}
	appmiddleware.ClearAuthCookies(c, rt.cfg.CookieConfig)
	return c.NoContent(http.StatusNoContent)
}

func (rt *Router) handleSessionKeepalive(c echo.Context) error {
	session := appmiddleware.SessionFromContext(c.Request().Context())
	if session == nil {
		return writeErr(c, apperr.New(apperr.Unauthenticated, "no active session"))
	}
	fresh, err := rt.cfg.Auth.ValidateSession(c.Request().Context(), session.ID)
	if err != nil {
		return writeErr(c, apperr.New(apperr.Unauthenticated, "session expired"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"remaining_seconds": int64(time.Until(fresh.ExpiresAt).Seconds()),
	})
}

type sessionCheckResponse struct {
	Valid            bool   `json:"valid"`
	Role             string `json:"role,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

func (rt *Router) handleSessionCheck(c echo.Context) error {
	user := appmiddleware.UserFromContext(c.Request().Context())
	session := appmiddleware.SessionFromContext(c.Request().Context())
	if user == nil || session == nil {
		return c.JSON(http.StatusOK, sessionCheckResponse{Valid: false})
	}
	remaining := int64(time.Until(session.ExpiresAt).Seconds())
	return c.JSON(http.StatusOK, sessionCheckResponse{
		Valid:            true,
		Role:             string(user.Role),
		RemainingSeconds: remaining,
	})
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
