package httpapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/inventory"
)

func TestSwitchesFiltersBySiteAndFloor(t *testing.T) {
	h := newTestHarness(t)
	h.inv.PutSite(inventory.Site{Name: "hq"})
	h.inv.PutFloor(inventory.Floor{Site: "hq", Name: "1"})
	h.inv.PutSwitch(inventory.Switch{ID: "sw1", Site: "hq", Floor: "1", DisplayName: "sw1", Enabled: true})
	h.inv.PutSwitch(inventory.Switch{ID: "sw2", Site: "hq", Floor: "2", DisplayName: "sw2", Enabled: true})

	h.createUser(t, "admin1", testPassword, auth.RoleNetAdmin)
	cookie := h.loginAs(t, "admin1", testPassword)

	rec := h.do(t, http.MethodGet, "/api/switches?site=hq&floor=1", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var switches []inventory.Switch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &switches))
	require.Len(t, switches, 1)
	assert.Equal(t, "sw1", switches[0].ID)
}

func TestFloorsListsFloorsForSite(t *testing.T) {
	h := newTestHarness(t)
	h.inv.PutSite(inventory.Site{Name: "hq"})
	h.inv.PutFloor(inventory.Floor{Site: "hq", Name: "1"})
	h.inv.PutFloor(inventory.Floor{Site: "hq", Name: "2"})

	h.createUser(t, "admin1", testPassword, auth.RoleNetAdmin)
	cookie := h.loginAs(t, "admin1", testPassword)

	rec := h.do(t, http.MethodGet, "/api/floors?site=hq", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var floors []inventory.Floor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &floors))
	assert.Len(t, floors, 2)
}
