package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dellswitch/switchctl/internal/apperr"
)

// errorResponse is the JSON body every non-2xx response shares.
type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	RequestID string `json:"request_id,omitempty"`
}

// statusFor maps an apperr.Kind to the HTTP status §7 assigns it. ParseFailure
// is grouped with the other client-format kinds because this package raises
// it for malformed request bodies, not just the driver's unparseable-output
// case. Kinds not named in §7's prose (switch/transport failures that
// normally surface inside a 200 response's Failures/Outcomes list rather
// than as a top-level error) fall back to 500, the same default §7 gives
// Internal.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.MacFormat, apperr.PortSpecFormat, apperr.VlanRange, apperr.ParseFailure:
		return http.StatusBadRequest
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.SwitchUnknown:
		return http.StatusNotFound
	case apperr.PlanDrift:
		return http.StatusConflict
	case apperr.VlanAbsent:
		return http.StatusUnprocessableEntity
	case apperr.Busy, apperr.Overloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeErr shapes err into the response body §4.8 calls for: a JSON object
// carrying the Kind and a message that never echoes command output or
// credentials, at the status statusFor maps the Kind to.
func writeErr(c echo.Context, err error) error {
	kind := apperr.KindOf(err)
	return c.JSON(statusFor(kind), errorResponse{
		Error:     err.Error(),
		Kind:      string(kind),
		RequestID: requestID(c),
	})
}
