// Package parser implements line-oriented, defensive recognition of Dell CLI
// output: MAC address tables and running-config interface blocks. Parsers
// ignore banner text, pager prompts, and blank lines, and default to a safe
// "unknown/down" result rather than aborting on output they don't recognize
// (the driver's parsing contract, §4.1).
package parser

import "strings"

// SplitLines splits raw CLI output into lines, dropping the trailing empty
// line that Split produces for a trailing newline.
func SplitLines(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// IsBlank reports whether line is empty once trimmed.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// pagerMarkers are substrings that identify a terminal pager prompt line,
// which must never be treated as data.
var pagerMarkers = []string{"--more--", "--More--", "<--- more --->", "press any key"}

// IsPagerPrompt reports whether line is a pager artifact rather than data.
func IsPagerPrompt(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range pagerMarkers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// IsBannerLine reports whether line looks like a login banner, a
// divider/rule, or a device prompt rather than tabular data.
func IsBannerLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "***") || strings.HasPrefix(trimmed, "===") {
		return true
	}
	if isAllDashesOrEquals(trimmed) {
		return true
	}
	return IsPromptLine(trimmed)
}

// IsPromptLine reports whether line is a bare device prompt ("switch1#",
// "OS10#", "switch1(config)#") rather than command output: it ends in '#' or
// '>' and carries no embedded whitespace. The interactive driver session
// uses this to recognize that a command has finished running.
func IsPromptLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return (strings.HasSuffix(trimmed, "#") || strings.HasSuffix(trimmed, ">")) && !strings.Contains(trimmed, " ")
}

func isAllDashesOrEquals(s string) bool {
	for _, c := range s {
		if c != '-' && c != '=' && c != ' ' {
			return false
		}
	}
	return true
}

// Fields splits a line on runs of whitespace, same as strings.Fields but
// named here for readability in column-oriented parsers.
func Fields(line string) []string {
	return strings.Fields(line)
}

// UsefulLines returns the lines of raw with blanks, pager prompts, and
// banner lines removed, preserving order.
func UsefulLines(raw string) []string {
	lines := SplitLines(raw)
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if IsBlank(l) || IsPagerPrompt(l) || IsBannerLine(l) {
			continue
		}
		out = append(out, l)
	}
	return out
}
