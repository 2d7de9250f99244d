package switchnet

import (
	"strconv"
	"strings"
)

// PortKind is one of the interface-kind prefixes recognized across the Dell
// CLI dialects.
type PortKind string

const (
	KindGigabitEthernet PortKind = "Gi"
	KindTenGigabit      PortKind = "Te"
	KindTwentyFiveGig   PortKind = "Tw"
	KindPortChannel     PortKind = "Po"
	KindEthernet        PortKind = "ethernet"
)

// PortRef identifies one physical (or logical, for Po) port by its
// interface-kind and unit/slot/port coordinates.
type PortRef struct {
	Kind   PortKind
	Coords []int // 1 to 3 numbers, most-significant first
}

// String renders ref using the family-appropriate printer: "Gi1/0/24" for the
// slash-joined kinds, "ethernet 1/1/1" for the OS10-style kind. Round
// tripping this string through ParsePortSpec yields an equal []PortRef
// (property P2).
func (r PortRef) String() string {
	var b strings.Builder
	b.WriteString(string(r.Kind))
	if r.Kind == KindEthernet {
		b.WriteByte(' ')
	}
	for i, c := range r.Coords {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}

// Equal reports whether r and other refer to the same port.
func (r PortRef) Equal(other PortRef) bool {
	if r.Kind != other.Kind || len(r.Coords) != len(other.Coords) {
		return false
	}
	for i := range r.Coords {
		if r.Coords[i] != other.Coords[i] {
			return false
		}
	}
	return true
}

// Less orders refs in "natural port order": by kind, then by coordinates
// most-significant first. Used to give MAC-trace hits and VLAN-change plans
// a stable ordering.
func (r PortRef) Less(other PortRef) bool {
	if r.Kind != other.Kind {
		return r.Kind < other.Kind
	}
	for i := 0; i < len(r.Coords) && i < len(other.Coords); i++ {
		if r.Coords[i] != other.Coords[i] {
			return r.Coords[i] < other.Coords[i]
		}
	}
	return len(r.Coords) < len(other.Coords)
}

// sameRangePrefix reports whether a and b share a kind and all but the last
// coordinate, as required for a valid range token ("a-b").
func sameRangePrefix(a, b PortRef) bool {
	if a.Kind != b.Kind || len(a.Coords) != len(b.Coords) || len(a.Coords) == 0 {
		return false
	}
	for i := 0; i < len(a.Coords)-1; i++ {
		if a.Coords[i] != b.Coords[i] {
			return false
		}
	}
	return true
}
