package switchdriver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

var testMAC = switchnet.MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

func TestN3000DialectCommands(t *testing.T) {
	d := n3000Dialect{}
	assert.Equal(t, FamilyN3000, d.family())
	assert.Equal(t, switchnet.KindTenGigabit, d.uplinkKind())
	assert.Equal(t, "show mac address-table address aa:bb:cc:dd:ee:ff", d.findMACCommand(testMAC))
	assert.Equal(t, "show vlan id 20", d.vlanExistsCommand(20))
	assert.Equal(t, "switchport access vlan 20", d.setAccessVLANCommand(20))
	assert.Equal(t, "write memory", d.saveCommand())
	assert.True(t, d.matchesProbe("Dell EMC Networking N3000E-ON"))
	assert.False(t, d.matchesProbe("Dell EMC Networking N3200-ON"))
}

func TestN3200DialectCommands(t *testing.T) {
	d := n3200Dialect{}
	assert.Equal(t, FamilyN3200, d.family())
	assert.Equal(t, switchnet.KindTwentyFiveGig, d.uplinkKind())
	assert.Equal(t, "write memory", d.saveCommand())
	assert.True(t, d.matchesProbe("Dell EMC Networking N3200-ON"))
	assert.False(t, d.matchesProbe("Dell EMC Networking N3000"))
}

func TestOS10DialectCommands(t *testing.T) {
	d := os10Dialect{}
	assert.Equal(t, FamilyOS10, d.family())
	assert.Equal(t, switchnet.PortKind(""), d.uplinkKind())
	assert.Equal(t, "copy running-config startup-config", d.saveCommand())
	assert.True(t, d.matchesProbe("Dell EMC SmartFabric OS10"))
}

func TestDialectFormatRangeCommandsDifferByFamily(t *testing.T) {
	lo := switchnet.PortRef{Kind: switchnet.KindGigabitEthernet, Coords: []int{1, 0, 1}}
	hi := switchnet.PortRef{Kind: switchnet.KindGigabitEthernet, Coords: []int{1, 0, 24}}
	assert.Equal(t, "interface range Gi1/0/1-24", n3000Dialect{}.formatRangeCommand(lo, hi))

	eLo := switchnet.PortRef{Kind: switchnet.KindEthernet, Coords: []int{1, 1, 1}}
	eHi := switchnet.PortRef{Kind: switchnet.KindEthernet, Coords: []int{1, 1, 4}}
	assert.Equal(t, "interface range ethernet 1/1/1-1/1/4", os10Dialect{}.formatRangeCommand(eLo, eHi))
}
