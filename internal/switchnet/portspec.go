package switchnet

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/apperr"
)

// prefixes in longest-match-first order so "ethernet " is tried before a
// bare letter prefix could shadow it.
var recognizedPrefixes = []PortKind{
	KindEthernet,
	KindGigabitEthernet,
	KindTenGigabit,
	KindTwentyFiveGig,
	KindPortChannel,
}

// ParsePortSpec parses a port-spec string into a canonical, de-duplicated,
// naturally-ordered list of PortRef, per the grammar:
//
//	spec      := token ("," token)*
//	token     := single | range
//	single    := prefix number ("/" number){0,2}
//	range     := single "-" single   ; both singles share prefix and all but last coord
//	prefix    := "Gi" | "Te" | "Tw" | "Po" | "ethernet "
//	number    := [0-9]+
//
// Any character outside [A-Za-z0-9/ ,-] is rejected as potential injection.
func ParsePortSpec(spec string) ([]PortRef, error) {
	if err := validateCharset(spec); err != nil {
		return nil, err
	}

	normalized := normalizeWhitespace(spec)
	if normalized == "" {
		return nil, apperr.New(apperr.PortSpecFormat, "port spec must not be empty")
	}

	var refs []PortRef
	for _, token := range strings.Split(normalized, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, apperr.New(apperr.PortSpecFormat, "port spec contains an empty token")
		}
		tokenRefs, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		refs = append(refs, tokenRefs...)
	}

	return dedupeAndSort(refs), nil
}

func validateCharset(spec string) error {
	for _, c := range spec {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '/' || c == ' ' || c == ',' || c == '-':
		default:
			return apperr.New(apperr.PortSpecFormat, "port spec contains a disallowed character")
		}
	}
	return nil
}

// normalizeWhitespace collapses every run of whitespace to a single space
// (including inside "ethernet  1/1/1") and trims both ends; spaces left
// beside commas and hyphens are trimmed later by the tokenizer.
func normalizeWhitespace(spec string) string {
	fields := strings.Fields(spec)
	return strings.Join(fields, " ")
}

// parseToken parses one comma-delimited token, which is either a single port
// or a closed range. The range's upper bound may repeat the full prefixed
// single (e.g. "ethernet 1/1/1-1/1/24", prefix implied from the lower bound)
// or abbreviate to just the trailing coordinate (e.g. "Gi1/0/1-24").
func parseToken(token string) ([]PortRef, error) {
	idx := strings.Index(token, "-")
	if idx < 0 {
		single, err := parseSingle(token)
		if err != nil {
			return nil, err
		}
		return []PortRef{single}, nil
	}

	left := strings.TrimSpace(token[:idx])
	right := strings.TrimSpace(token[idx+1:])

	lo, err := parseSingle(left)
	if err != nil {
		return nil, err
	}
	hi, err := parseRangeUpperBound(lo, right)
	if err != nil {
		return nil, err
	}
	return expandRange(lo, hi)
}

// parseRangeUpperBound parses the text after the '-' in a range token. It
// accepts either a full single sharing lo's prefix, or a bare coordinate
// list (with or without the trailing coordinate elided to just the final
// number) that is spliced onto lo's leading coordinates.
func parseRangeUpperBound(lo PortRef, right string) (PortRef, error) {
	if kind, rest, ok := stripPrefix(right); ok {
		hi, err := parseSingle(string(kind) + rest)
		if err != nil {
			return PortRef{}, err
		}
		return hi, nil
	}

	parts := strings.Split(right, "/")
	coords := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return PortRef{}, apperr.New(apperr.PortSpecFormat, "range upper bound has an empty coordinate: "+right)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return PortRef{}, apperr.New(apperr.PortSpecFormat, "range upper bound has a non-numeric coordinate: "+right)
		}
		coords = append(coords, n)
	}

	switch {
	case len(coords) == len(lo.Coords):
		return PortRef{Kind: lo.Kind, Coords: coords}, nil
	case len(coords) == 1:
		full := append([]int(nil), lo.Coords[:len(lo.Coords)-1]...)
		full = append(full, coords[0])
		return PortRef{Kind: lo.Kind, Coords: full}, nil
	default:
		return PortRef{}, apperr.New(apperr.PortSpecFormat, "range upper bound coordinate count does not match lower bound: "+right)
	}
}

// parseSingle parses one "prefix number (/number){0,2}" port reference.
func parseSingle(s string) (PortRef, error) {
	kind, rest, ok := stripPrefix(s)
	if !ok {
		return PortRef{}, apperr.New(apperr.PortSpecFormat, "port spec token has no recognized interface prefix: "+s)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return PortRef{}, apperr.New(apperr.PortSpecFormat, "port spec token is missing coordinates: "+s)
	}

	parts := strings.Split(rest, "/")
	if len(parts) == 0 || len(parts) > 3 {
		return PortRef{}, apperr.New(apperr.PortSpecFormat, "port spec token has an invalid coordinate count: "+s)
	}

	coords := make([]int, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return PortRef{}, apperr.New(apperr.PortSpecFormat, "port spec token has an empty coordinate: "+s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return PortRef{}, apperr.New(apperr.PortSpecFormat, "port spec token has a non-numeric coordinate: "+s)
		}
		coords = append(coords, n)
	}

	return PortRef{Kind: kind, Coords: coords}, nil
}

// stripPrefix matches the longest recognized prefix at the start of s.
func stripPrefix(s string) (PortKind, string, bool) {
	for _, kind := range recognizedPrefixes {
		prefix := string(kind)
		if kind == KindEthernet {
			if strings.HasPrefix(s, prefix+" ") {
				return kind, s[len(prefix)+1:], true
			}
			continue
		}
		if strings.HasPrefix(s, prefix) {
			return kind, s[len(prefix):], true
		}
	}
	return "", "", false
}

// expandRange expands a closed range "lo-hi" into the individual refs
// between lo and hi inclusive, validating that the bounds share a prefix and
// all but the last coordinate, and that they are numerically ordered.
func expandRange(lo, hi PortRef) ([]PortRef, error) {
	if !sameRangePrefix(lo, hi) {
		return nil, apperr.New(apperr.PortSpecFormat, "range bounds must share a prefix and slot/unit")
	}
	last := len(lo.Coords) - 1
	start, end := lo.Coords[last], hi.Coords[last]
	if start > end {
		return nil, apperr.New(apperr.PortSpecFormat, "range bounds must be numerically ordered")
	}

	refs := make([]PortRef, 0, end-start+1)
	for n := start; n <= end; n++ {
		coords := append([]int(nil), lo.Coords[:last]...)
		coords = append(coords, n)
		refs = append(refs, PortRef{Kind: lo.Kind, Coords: coords})
	}
	return refs, nil
}

func dedupeAndSort(refs []PortRef) []PortRef {
	seen := make(map[string]bool, len(refs))
	out := make([]PortRef, 0, len(refs))
	for _, r := range refs {
		key := r.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Less(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
