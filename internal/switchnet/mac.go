// Package switchnet holds the canonical value types shared by every
// switch-facing component: MAC addresses, port references, and VLAN ids.
package switchnet

import (
	"strings"

	"github.com/dellswitch/switchctl/internal/apperr"
)

// MAC is a canonicalized six-byte hardware address.
type MAC [6]byte

// String renders the MAC as six lowercase hex bytes, colon-separated.
func (m MAC) String() string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 0, 17)
	for i, octet := range m {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, hexDigits[octet>>4], hexDigits[octet&0x0f])
	}
	return string(b)
}

// ParseMAC canonicalizes one of the three accepted input forms:
//
//	colon-separated:  aa:bb:cc:dd:ee:ff
//	dash-separated:    aa-bb-cc-dd-ee-ff
//	cisco-dotted:      aabb.ccdd.eeff
//
// plus the bare 12-hex-digit form (aabbccddeeff, no separators). Any other
// form is rejected with apperr.MacFormat. Parsing is case
// insensitive; the result is always lowercase (property P1).
func ParseMAC(input string) (MAC, error) {
	var hexDigits string
	switch {
	case strings.Contains(input, ":"):
		hexDigits = joinGroups(input, ":", 6, 2)
	case strings.Contains(input, "-"):
		hexDigits = joinGroups(input, "-", 6, 2)
	case strings.Contains(input, "."):
		hexDigits = joinGroups(input, ".", 3, 4)
	default:
		// Bare 12 hex-digit form is accepted as a degenerate case of all
		// three grammars (zero separators).
		hexDigits = input
	}

	if len(hexDigits) != 12 || !isAllHex(hexDigits) {
		return MAC{}, apperr.New(apperr.MacFormat, "mac address must be six hex-byte groups separated by ':', '-', or '.' ")
	}

	var mac MAC
	hexDigits = strings.ToLower(hexDigits)
	for i := 0; i < 6; i++ {
		hi := hexValue(hexDigits[i*2])
		lo := hexValue(hexDigits[i*2+1])
		mac[i] = byte(hi<<4 | lo)
	}
	return mac, nil
}

// joinGroups splits input on sep, requires exactly wantGroups groups of
// groupLen hex digits each, and concatenates them. It returns a string of the
// wrong length when the shape doesn't match, which ParseMAC then rejects.
func joinGroups(input, sep string, wantGroups, groupLen int) string {
	groups := strings.Split(input, sep)
	if len(groups) != wantGroups {
		return ""
	}
	var b strings.Builder
	for _, g := range groups {
		if len(g) != groupLen {
			return ""
		}
		b.WriteString(g)
	}
	return b.String()
}

func isAllHex(s string) bool {
	for _, c := range s {
		if hexValue(byte(c)) < 0 {
			return false
		}
	}
	return true
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}
