package switchdriver

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// os10Dialect covers OS10 CLI switches, addressed as "ethernet U/S/P" with no
// distinct access/uplink kind prefix — uplinks are told apart only by
// port-channel membership or description, never by the interface kind
// itself.
type os10Dialect struct{}

func (os10Dialect) family() Family                 { return FamilyOS10 }
func (os10Dialect) uplinkKind() switchnet.PortKind { return "" }
func (os10Dialect) disablePagingCommand() string   { return "terminal length 0" }
func (os10Dialect) enterConfigCommand() string     { return "configure terminal" }
func (os10Dialect) exitCommand() string            { return "exit" }
func (os10Dialect) saveCommand() string            { return "copy running-config startup-config" }
func (os10Dialect) probeCommand() string           { return "show version" }

func (os10Dialect) findMACCommand(mac switchnet.MAC) string {
	return "show mac address-table address " + mac.String()
}

func (os10Dialect) describePortCommand(ref switchnet.PortRef) string {
	return "show running-configuration interface " + ref.String()
}

func (os10Dialect) vlanExistsCommand(vlan switchnet.VlanID) string {
	return "show vlan id " + strconv.Itoa(int(vlan))
}

func (os10Dialect) formatInterfaceCommand(ref switchnet.PortRef) string {
	return "interface " + ref.String()
}

func (os10Dialect) formatRangeCommand(lo, hi switchnet.PortRef) string {
	return fullRangeCommand(lo, hi)
}

func (os10Dialect) setAccessVLANCommand(vlan switchnet.VlanID) string {
	return "switchport access vlan " + strconv.Itoa(int(vlan))
}

func (os10Dialect) matchesProbe(output string) bool {
	return strings.Contains(strings.ToLower(output), "os10")
}
