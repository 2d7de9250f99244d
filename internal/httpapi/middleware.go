package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
	internalerrors "github.com/dellswitch/switchctl/internal/errors"
	"github.com/dellswitch/switchctl/internal/hostload"
	appmiddleware "github.com/dellswitch/switchctl/internal/middleware"
)

const requestIDContextKey = "request_id"

// requestIDMiddleware is the Echo-native sibling of
// internal/middleware/request_id.go's net/http version: same ULID
// generation and the same internal/errors request-id context key, so a
// handler calling internalerrors.GetRequestID(ctx) sees the same value
// regardless of which server stack set it.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(appmiddleware.RequestIDHeader)
		if id == "" {
			id = appmiddleware.GenerateRequestID()
		}
		c.Response().Header().Set(appmiddleware.RequestIDHeader, id)
		ctx := internalerrors.WithRequestID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Set(requestIDContextKey, id)
		return next(c)
	}
}

func requestID(c echo.Context) string {
	if id, ok := c.Get(requestIDContextKey).(string); ok {
		return id
	}
	return internalerrors.GetRequestID(c.Request().Context())
}

// hostLoadMiddleware is the gate §4.7/§4.8 places after role-checking and
// before any engine call: a guard in the red state refuses new privileged
// operations without touching in-flight switch sessions.
func hostLoadMiddleware(guard *hostload.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if guard != nil && !guard.Admit() {
				return writeErr(c, apperr.New(apperr.Overloaded, "host load is in the red state; try again shortly"))
			}
			return next(c)
		}
	}
}

// httpErrorHandler replaces Echo's default error handler so that handler
// errors (apperr.Error, echo.HTTPError from the auth middleware, or a bare
// error from a bind failure) all shape into the same errorResponse body.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		} else if m, ok := he.Message.(map[string]interface{}); ok {
			if s, ok := m["message"].(string); ok {
				msg = s
			}
		}
		kind := apperr.Internal
		switch he.Code {
		case http.StatusUnauthorized:
			kind = apperr.Unauthenticated
		case http.StatusForbidden:
			kind = apperr.Forbidden
		}
		_ = c.JSON(he.Code, errorResponse{Error: msg, Kind: string(kind), RequestID: requestID(c)})
		return
	}
	_ = writeErr(c, err)
}
