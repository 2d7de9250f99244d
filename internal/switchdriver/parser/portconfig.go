package parser

import "strconv"

// PortConfig is the neutral (package-agnostic) result of parsing one
// "interface <ref> ... exit" running-config block. switchdriver maps it onto
// switchdriver.PortFacts, applying the uplink-detection rule.
type PortConfig struct {
	Mode        string // "access", "trunk", "general", or "" when undetermined
	AccessVLAN  int    // valid only when Mode == "access"
	PVID        int    // valid only when Mode == "trunk"/"general"
	AllowedVLAN []int
	Description string
	AdminUp     bool
	Recognized  bool // false when the block could not be classified at all
}

// ParseInterfaceBlock scans the lines of a single interface's running-config
// section (already isolated by the caller, from the first "interface ..."
// line up to its "exit"/blank terminator) and extracts switchport state. It
// never errors: an unrecognized line is simply ignored, and a block with no
// recognizable switchport directives comes back with Recognized == false so
// the caller can fall back to mode "unknown" / port "down" per the driver's
// parsing contract.
func ParseInterfaceBlock(lines []string) PortConfig {
	cfg := PortConfig{AdminUp: true} // "no shutdown" is the Dell default
	for _, raw := range lines {
		line := trimLine(raw)
		switch {
		case line == "shutdown":
			cfg.AdminUp = false
		case line == "no shutdown":
			cfg.AdminUp = true
		case hasFold(line, "description "):
			cfg.Description = trimAfterFold(line, "description ")
			cfg.Recognized = true
		case hasFold(line, "switchport mode access"):
			cfg.Mode = "access"
			cfg.Recognized = true
		case hasFold(line, "switchport mode trunk"):
			cfg.Mode = "trunk"
			cfg.Recognized = true
		case hasFold(line, "switchport mode general"):
			cfg.Mode = "general"
			cfg.Recognized = true
		case hasFold(line, "switchport access vlan "):
			if v, err := strconv.Atoi(trimAfterFold(line, "switchport access vlan ")); err == nil {
				cfg.AccessVLAN = v
				cfg.Recognized = true
			}
		case hasFold(line, "switchport trunk native vlan "), hasFold(line, "switchport general pvid "):
			// PVID directive names differ ("native" on trunk, "pvid" on
			// general); both land in PVID for uplink-facing dispositions.
			rest := stripOneOfFold(line, "switchport trunk native vlan ", "switchport general pvid ")
			if v, err := strconv.Atoi(rest); err == nil {
				cfg.PVID = v
			}
		case hasFold(line, "switchport trunk allowed vlan "):
			cfg.AllowedVLAN = append(cfg.AllowedVLAN, parseVLANList(trimAfterFold(line, "switchport trunk allowed vlan "))...)
		case hasFold(line, "switchport general allowed vlan add "):
			cfg.AllowedVLAN = append(cfg.AllowedVLAN, parseVLANList(trimAfterFold(line, "switchport general allowed vlan add "))...)
		}
	}
	return cfg
}

func trimLine(s string) string {
	start := 0
	for start < len(s) && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	end := len(s)
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

func hasFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return foldEqual(s[:len(prefix)], prefix)
}

func trimAfterFold(s, prefix string) string {
	return trimLine(s[len(prefix):])
}

func stripOneOfFold(s string, prefixes ...string) string {
	for _, p := range prefixes {
		if hasFold(s, p) {
			return trimAfterFold(s, p)
		}
	}
	return ""
}

func foldEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// parseVLANList parses a comma-separated list of VLAN ids and single ranges
// ("10,20,30-35") as emitted by "switchport trunk allowed vlan". Malformed
// entries are skipped rather than aborting the whole line.
func parseVLANList(s string) []int {
	var out []int
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			tok := trimLine(s[start:i])
			out = append(out, parseVLANToken(tok)...)
			start = i + 1
		}
	}
	return out
}

func parseVLANToken(tok string) []int {
	for i := range tok {
		if tok[i] == '-' {
			lo, errLo := strconv.Atoi(tok[:i])
			hi, errHi := strconv.Atoi(tok[i+1:])
			if errLo != nil || errHi != nil || lo > hi {
				return nil
			}
			out := make([]int, 0, hi-lo+1)
			for v := lo; v <= hi; v++ {
				out = append(out, v)
			}
			return out
		}
	}
	if v, err := strconv.Atoi(tok); err == nil {
		return []int{v}
	}
	return nil
}
