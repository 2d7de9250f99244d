package parser

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// interfaceKindPrefixes maps the literal prefix text a switch emits in its
// own CLI output (which, unlike the user-facing port-spec grammar, never
// puts a space after "ethernet") to the canonical PortKind.
var interfaceKindPrefixes = []struct {
	prefix string
	kind   switchnet.PortKind
}{
	{"ethernet", switchnet.KindEthernet},
	{"Gi", switchnet.KindGigabitEthernet},
	{"Te", switchnet.KindTenGigabit},
	{"Tw", switchnet.KindTwentyFiveGig},
	{"Po", switchnet.KindPortChannel},
}

// ParseInterfaceToken parses a single interface token as emitted verbatim by
// switch CLI output (e.g. "Gi1/0/24", "ethernet1/1/1", "Po1"). It is
// deliberately more permissive than switchnet.ParsePortSpec, which governs
// operator-supplied input; unrecognized tokens return ok=false so callers can
// fall back to the "unknown port" disposition instead of failing outright.
func ParseInterfaceToken(tok string) (ref switchnet.PortRef, ok bool) {
	tok = strings.TrimSpace(tok)
	for _, p := range interfaceKindPrefixes {
		rest, found := trimPrefixFold(tok, p.prefix)
		if !found {
			continue
		}
		rest = strings.TrimPrefix(rest, " ")
		if rest == "" {
			return switchnet.PortRef{}, false
		}
		parts := strings.Split(rest, "/")
		coords := make([]int, 0, len(parts))
		for _, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil {
				return switchnet.PortRef{}, false
			}
			coords = append(coords, n)
		}
		return switchnet.PortRef{Kind: p.kind, Coords: coords}, true
	}
	return switchnet.PortRef{}, false
}

func trimPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
