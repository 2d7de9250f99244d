package switchnet

import "github.com/dellswitch/switchctl/internal/apperr"

// VlanID is a validated VLAN identifier in [1, 4094]; 0 and 4095 are
// reserved and rejected.
type VlanID int

// ParseVlanID validates v against the accepted VLAN range.
func ParseVlanID(v int) (VlanID, error) {
	if v < 1 || v > 4094 {
		return 0, apperr.New(apperr.VlanRange, "vlan id must be between 1 and 4094")
	}
	return VlanID(v), nil
}
