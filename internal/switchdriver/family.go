package switchdriver

import "github.com/dellswitch/switchctl/internal/switchnet"

// Family identifies one of the recognized Dell CLI dialects. It is the
// "model tag" carried on each inventory Switch.
type Family string

const (
	// FamilyN3000 covers the N2000/N3000 family: access ports prefixed Gi,
	// uplinks Te.
	FamilyN3000 Family = "n3000"
	// FamilyN3200 covers the N3200 family: access Te, uplinks Tw.
	FamilyN3200 Family = "n3200"
	// FamilyOS10 covers OS10-style switches addressed as "ethernet U/S/P".
	FamilyOS10 Family = "os10"
	// FamilyUnknown is accepted only for read operations that can
	// auto-probe; writes against it fail with apperr.Unsupported.
	FamilyUnknown Family = "unknown"
)

// Valid reports whether f is one of the recognized family tags.
func (f Family) Valid() bool {
	switch f {
	case FamilyN3000, FamilyN3200, FamilyOS10, FamilyUnknown:
		return true
	default:
		return false
	}
}

// ValidPortKind reports whether kind is a real interface-kind prefix for
// fam's model family, for the VLAN Change Engine's port-spec validation
// (§4.5: a parsed ref that doesn't map to an existing interface on the
// target family is classified unknown-port).
func ValidPortKind(fam Family, kind switchnet.PortKind) bool {
	if kind == switchnet.KindPortChannel {
		return true
	}
	switch fam {
	case FamilyN3000:
		return kind == switchnet.KindGigabitEthernet || kind == switchnet.KindTenGigabit
	case FamilyN3200:
		return kind == switchnet.KindTenGigabit || kind == switchnet.KindTwentyFiveGig
	case FamilyOS10:
		return kind == switchnet.KindEthernet
	default:
		return false
	}
}

// dialectFor returns the CLI dialect implementation for f, or nil for
// FamilyUnknown (callers must probe first).
func dialectFor(f Family) dialect {
	switch f {
	case FamilyN3000:
		return n3000Dialect{}
	case FamilyN3200:
		return n3200Dialect{}
	case FamilyOS10:
		return os10Dialect{}
	default:
		return nil
	}
}
