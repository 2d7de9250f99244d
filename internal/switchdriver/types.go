// Package switchdriver owns the per-connection state machine with one Dell
// access switch: connect, disable paging, run the minimum CLI dialect needed
// to locate a MAC address and to preview/apply VLAN assignment changes.
package switchdriver

import "github.com/dellswitch/switchctl/internal/switchnet"

// PortMode is the switchport mode reported by "show running-config
// interface" (or equivalent) for a given port.
type PortMode string

const (
	ModeAccess  PortMode = "access"
	ModeTrunk   PortMode = "trunk"
	ModeGeneral PortMode = "general"
	// ModeUnknown is the safe default on ambiguous parser output.
	ModeUnknown PortMode = "unknown"
)

// PortFacts is everything the engines need to know about one port.
type PortFacts struct {
	Ref         switchnet.PortRef
	AdminUp     bool
	LinkUp      bool
	Mode        PortMode
	AccessVLAN  switchnet.VlanID
	AllowedVLAN []switchnet.VlanID
	Description string
	IsUplink    bool
}

// uplinkKeywords are case-insensitive description substrings that mark a
// port as an uplink regardless of its configured mode or kind.
var uplinkKeywords = []string{
	"uplink", "trunk", "backbone", "core", "distribution", "aggregation", "stack",
}

// Outcome is the per-port result of an apply_access_vlan call.
type Outcome struct {
	Ref     switchnet.PortRef
	Applied bool
	Reason  string // populated when Applied is false
}
