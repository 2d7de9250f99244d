package switchdriver

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// n3200Dialect covers the N3200 family: Te access ports, Tw (25G) uplinks.
// Command syntax otherwise matches the N3000 generation.
type n3200Dialect struct{}

func (n3200Dialect) family() Family                 { return FamilyN3200 }
func (n3200Dialect) uplinkKind() switchnet.PortKind { return switchnet.KindTwentyFiveGig }
func (n3200Dialect) disablePagingCommand() string   { return "terminal length 0" }
func (n3200Dialect) enterConfigCommand() string     { return "configure terminal" }
func (n3200Dialect) exitCommand() string            { return "exit" }
func (n3200Dialect) saveCommand() string            { return "write memory" }
func (n3200Dialect) probeCommand() string           { return "show version" }

func (n3200Dialect) findMACCommand(mac switchnet.MAC) string {
	return "show mac address-table address " + mac.String()
}

func (n3200Dialect) describePortCommand(ref switchnet.PortRef) string {
	return "show running-config interface " + ref.String()
}

func (n3200Dialect) vlanExistsCommand(vlan switchnet.VlanID) string {
	return "show vlan id " + strconv.Itoa(int(vlan))
}

func (n3200Dialect) formatInterfaceCommand(ref switchnet.PortRef) string {
	return "interface " + ref.String()
}

func (n3200Dialect) formatRangeCommand(lo, hi switchnet.PortRef) string {
	return abbreviatedRangeCommand(lo, hi)
}

func (n3200Dialect) setAccessVLANCommand(vlan switchnet.VlanID) string {
	return "switchport access vlan " + strconv.Itoa(int(vlan))
}

func (n3200Dialect) matchesProbe(output string) bool {
	return strings.Contains(strings.ToLower(output), "n3200")
}
