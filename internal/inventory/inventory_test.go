package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/apperr"
)

func TestSwitchesFiltersByEnabledSiteAndFloor(t *testing.T) {
	store := NewMemoryStore()
	store.PutSwitch(Switch{ID: "sw1", Site: "hq", Floor: "1", DisplayName: "b-switch", Enabled: true})
	store.PutSwitch(Switch{ID: "sw2", Site: "hq", Floor: "1", DisplayName: "a-switch", Enabled: true})
	store.PutSwitch(Switch{ID: "sw3", Site: "hq", Floor: "1", DisplayName: "disabled", Enabled: false})
	store.PutSwitch(Switch{ID: "sw4", Site: "hq", Floor: "2", DisplayName: "other-floor", Enabled: true})
	store.PutSwitch(Switch{ID: "sw5", Site: "branch", Floor: "1", DisplayName: "other-site", Enabled: true})

	out, err := store.Switches(context.Background(), "hq", "1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a-switch", out[0].DisplayName)
	assert.Equal(t, "b-switch", out[1].DisplayName)
}

func TestSwitchesReturnsEmptySliceNotNil(t *testing.T) {
	store := NewMemoryStore()
	out, err := store.Switches(context.Background(), "hq", "1")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSwitchReturnsSwitchUnknownForMissingID(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Switch(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, apperr.SwitchUnknown, apperr.KindOf(err))
}

func TestSwitchIgnoresEnabledFlag(t *testing.T) {
	store := NewMemoryStore()
	store.PutSwitch(Switch{ID: "sw1", Enabled: false})

	sw, err := store.Switch(context.Background(), "sw1")
	require.NoError(t, err)
	assert.Equal(t, "sw1", sw.ID)
	assert.False(t, sw.Enabled)
}

func TestSitesReturnsNameSortedList(t *testing.T) {
	store := NewMemoryStore()
	store.PutSite(Site{Name: "zeta"})
	store.PutSite(Site{Name: "alpha"})

	out, err := store.Sites(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "alpha", out[0].Name)
	assert.Equal(t, "zeta", out[1].Name)
}

func TestFloorsFiltersBySiteAndSortsByName(t *testing.T) {
	store := NewMemoryStore()
	store.PutFloor(Floor{Site: "hq", Name: "2"})
	store.PutFloor(Floor{Site: "hq", Name: "1"})
	store.PutFloor(Floor{Site: "branch", Name: "1"})

	out, err := store.Floors(context.Background(), "hq")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].Name)
	assert.Equal(t, "2", out[1].Name)
}

func TestDeleteSiteCascadesToFloorsAndSwitches(t *testing.T) {
	store := NewMemoryStore()
	store.PutSite(Site{Name: "hq"})
	store.PutFloor(Floor{Site: "hq", Name: "1"})
	store.PutSwitch(Switch{ID: "sw1", Site: "hq", Floor: "1", Enabled: true})

	store.DeleteSite("hq")

	sites, err := store.Sites(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sites)

	floors, err := store.Floors(context.Background(), "hq")
	require.NoError(t, err)
	assert.Empty(t, floors)

	_, err = store.Switch(context.Background(), "sw1")
	require.Error(t, err)
	assert.Equal(t, apperr.SwitchUnknown, apperr.KindOf(err))
}

func TestDeleteFloorCascadesToSwitchesOnThatFloorOnly(t *testing.T) {
	store := NewMemoryStore()
	store.PutFloor(Floor{Site: "hq", Name: "1"})
	store.PutSwitch(Switch{ID: "sw1", Site: "hq", Floor: "1", Enabled: true})
	store.PutSwitch(Switch{ID: "sw2", Site: "hq", Floor: "2", Enabled: true})

	store.DeleteFloor("hq", "1")

	_, err := store.Switch(context.Background(), "sw1")
	require.Error(t, err)

	sw2, err := store.Switch(context.Background(), "sw2")
	require.NoError(t, err)
	assert.Equal(t, "sw2", sw2.ID)
}

func TestPutSwitchUpsertsByID(t *testing.T) {
	store := NewMemoryStore()
	store.PutSwitch(Switch{ID: "sw1", DisplayName: "first", Enabled: true})
	store.PutSwitch(Switch{ID: "sw1", DisplayName: "second", Enabled: true})

	sw, err := store.Switch(context.Background(), "sw1")
	require.NoError(t, err)
	assert.Equal(t, "second", sw.DisplayName)
}
