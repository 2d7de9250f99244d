package parser

import (
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// ParseMACTable recognizes the column layout of a "show mac address-table
// address <mac>" response (N2000/N3000/N3200 dash-separated dynamic/static
// table, and the OS10 VlanId/MacAddress/Type/Interface variant) and returns
// the port the address was learned on. ok is false when the address has no
// entry (a normal "not found on this switch" outcome, not a parse error).
func ParseMACTable(raw string) (ref switchnet.PortRef, ok bool) {
	for _, line := range UsefulLines(raw) {
		fields := Fields(line)
		if len(fields) < 2 {
			continue
		}
		// The interface token is always the last column in both the
		// N-series and OS10 table layouts; the MAC/type/vlan columns vary
		// in count and order across families, so anchor on the one column
		// whose shape is load-bearing for the caller.
		last := fields[len(fields)-1]
		if candidate, found := ParseInterfaceToken(last); found && containsMACColumn(fields) {
			return candidate, true
		}
	}
	return switchnet.PortRef{}, false
}

// containsMACColumn requires at least one field to look like a MAC address
// (any of the three accepted separator styles), guarding against matching an
// unrelated row whose last column happens to look like an interface token
// (e.g. a header line such as "... ... Interface").
func containsMACColumn(fields []string) bool {
	for _, f := range fields {
		if looksLikeMAC(f) {
			return true
		}
	}
	return false
}

func looksLikeMAC(s string) bool {
	if strings.Count(s, ":") == 5 || strings.Count(s, "-") == 5 {
		return len(strings.NewReplacer(":", "", "-", "").Replace(s)) == 12
	}
	if strings.Count(s, ".") == 2 {
		return len(strings.ReplaceAll(s, ".", "")) == 12
	}
	return false
}
