package switchdriver

import "github.com/dellswitch/switchctl/internal/switchnet"

// dialect is the per-model-family CLI recognizer and command generator. Each
// implementation is a stateless value; all connection state lives in Driver.
type dialect interface {
	family() Family

	// uplinkKind is the interface-kind that is always an uplink for this
	// family (Te for N2000/N3000, Tw for N3200, empty for OS10 where the
	// single ethernet kind carries both roles and Po, which is universal).
	uplinkKind() switchnet.PortKind

	disablePagingCommand() string
	enterConfigCommand() string
	findMACCommand(mac switchnet.MAC) string
	describePortCommand(ref switchnet.PortRef) string
	vlanExistsCommand(vlan switchnet.VlanID) string

	formatInterfaceCommand(ref switchnet.PortRef) string
	formatRangeCommand(lo, hi switchnet.PortRef) string
	setAccessVLANCommand(vlan switchnet.VlanID) string
	exitCommand() string
	saveCommand() string

	probeCommand() string
	// matchesProbe reports whether output (from probeCommand) identifies a
	// switch of this family.
	matchesProbe(output string) bool
}

// isUplinkKind reports whether kind is universally treated as an uplink
// (port-channel, on any family).
func isUplinkKind(kind switchnet.PortKind) bool {
	return kind == switchnet.KindPortChannel
}

// detectFamily runs each dialect's probe match against output, in a fixed
// order, for the FamilyUnknown auto-probe path described in §4.1.
func detectFamily(output string) Family {
	for _, d := range []dialect{n3000Dialect{}, n3200Dialect{}, os10Dialect{}} {
		if d.matchesProbe(output) {
			return d.family()
		}
	}
	return FamilyUnknown
}
