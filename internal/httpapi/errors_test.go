package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/apperr"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.MacFormat, http.StatusBadRequest},
		{apperr.PortSpecFormat, http.StatusBadRequest},
		{apperr.VlanRange, http.StatusBadRequest},
		{apperr.ParseFailure, http.StatusBadRequest},
		{apperr.Unauthenticated, http.StatusUnauthorized},
		{apperr.Forbidden, http.StatusForbidden},
		{apperr.SwitchUnknown, http.StatusNotFound},
		{apperr.PlanDrift, http.StatusConflict},
		{apperr.VlanAbsent, http.StatusUnprocessableEntity},
		{apperr.Busy, http.StatusServiceUnavailable},
		{apperr.Overloaded, http.StatusServiceUnavailable},
		{apperr.Internal, http.StatusInternalServerError},
		{apperr.Unreachable, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.kind), "kind %s", tc.kind)
	}
}

func TestWriteErrShapesAppError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(requestIDContextKey, "req-123")

	err := writeErr(c, apperr.New(apperr.VlanRange, "vlan id out of range"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"[VlanRange] vlan id out of range","kind":"VlanRange","request_id":"req-123"}`, rec.Body.String())
}

func TestWriteErrDefaultsUnknownErrorToInternal(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := writeErr(c, assert.AnError)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
