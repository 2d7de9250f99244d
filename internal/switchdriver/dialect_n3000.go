package switchdriver

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// n3000Dialect covers the N2000/N2100 and N3000 families: Gi access ports,
// Te uplinks, a classic Cisco-derived CLI.
type n3000Dialect struct{}

func (n3000Dialect) family() Family                 { return FamilyN3000 }
func (n3000Dialect) uplinkKind() switchnet.PortKind { return switchnet.KindTenGigabit }
func (n3000Dialect) disablePagingCommand() string   { return "terminal length 0" }
func (n3000Dialect) enterConfigCommand() string     { return "configure terminal" }
func (n3000Dialect) exitCommand() string            { return "exit" }
func (n3000Dialect) saveCommand() string            { return "write memory" }
func (n3000Dialect) probeCommand() string           { return "show version" }

func (n3000Dialect) findMACCommand(mac switchnet.MAC) string {
	return "show mac address-table address " + mac.String()
}

func (n3000Dialect) describePortCommand(ref switchnet.PortRef) string {
	return "show running-config interface " + ref.String()
}

func (n3000Dialect) vlanExistsCommand(vlan switchnet.VlanID) string {
	return "show vlan id " + strconv.Itoa(int(vlan))
}

func (n3000Dialect) formatInterfaceCommand(ref switchnet.PortRef) string {
	return "interface " + ref.String()
}

func (n3000Dialect) formatRangeCommand(lo, hi switchnet.PortRef) string {
	return abbreviatedRangeCommand(lo, hi)
}

func (n3000Dialect) setAccessVLANCommand(vlan switchnet.VlanID) string {
	return "switchport access vlan " + strconv.Itoa(int(vlan))
}

func (n3000Dialect) matchesProbe(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "n2000") || strings.Contains(lower, "n3000") || strings.Contains(lower, "n2100")
}
