package switchdriver

import (
	"strconv"
	"strings"

	"github.com/dellswitch/switchctl/internal/switchnet"
)

// CommandBlock is one contiguous run of ports rendered as either a single
// "interface X" command or a collapsed "interface range X-Y" command,
// together with the config-mode commands that apply to it.
type CommandBlock struct {
	Refs     []switchnet.PortRef
	Commands []string
}

// BuildAccessVLANBlocks collapses refs (already sorted, already filtered to
// the will-change disposition by the caller) into the minimal command
// sequence for fam: contiguous runs become "interface range" blocks, lone
// ports become "interface" blocks. This is used both to render a
// ChangePlan's preview command text and, verbatim, to drive the execute
// path — the two can never diverge because they share this function. A
// block's Refs can still end up with mixed per-port outcomes on execute:
// the driver attributes a collapsed range's rejection to whichever ports
// the switch names in its response, rather than treating the block as a
// single pass/fail unit (see runBlock in driver.go).
func BuildAccessVLANBlocks(fam Family, refs []switchnet.PortRef, vlan switchnet.VlanID) []CommandBlock {
	d := dialectFor(fam)
	if d == nil || len(refs) == 0 {
		return nil
	}

	blocks := make([]CommandBlock, 0, len(refs))
	for _, run := range collapseContiguous(refs) {
		var enter string
		if len(run) == 1 {
			enter = d.formatInterfaceCommand(run[0])
		} else {
			enter = d.formatRangeCommand(run[0], run[len(run)-1])
		}
		blocks = append(blocks, CommandBlock{
			Refs: run,
			Commands: []string{
				enter,
				d.setAccessVLANCommand(vlan),
				d.exitCommand(),
			},
		})
	}
	return blocks
}

// collapseContiguous groups a sorted, deduplicated slice of refs into runs
// that share a kind and leading coordinates, and whose trailing coordinate
// is consecutive.
func collapseContiguous(refs []switchnet.PortRef) [][]switchnet.PortRef {
	var runs [][]switchnet.PortRef
	var current []switchnet.PortRef

	for _, ref := range refs {
		if len(current) > 0 && contiguous(current[len(current)-1], ref) {
			current = append(current, ref)
			continue
		}
		if len(current) > 0 {
			runs = append(runs, current)
		}
		current = []switchnet.PortRef{ref}
	}
	if len(current) > 0 {
		runs = append(runs, current)
	}
	return runs
}

// abbreviatedRangeCommand renders "interface range Gi1/0/1-24": the full
// lower bound followed by just the upper bound's last coordinate. Used by
// the Gi/Te/Tw dialects, matching the shorthand form switches themselves
// echo back in "show running-config".
func abbreviatedRangeCommand(lo, hi switchnet.PortRef) string {
	return "interface range " + lo.String() + "-" + strconv.Itoa(hi.Coords[len(hi.Coords)-1])
}

// fullRangeCommand renders "interface range ethernet 1/1/1-1/1/4": both
// bounds written out in full, with the "ethernet" prefix stated once.
func fullRangeCommand(lo, hi switchnet.PortRef) string {
	return "interface range ethernet " + coordString(lo) + "-" + coordString(hi)
}

func coordString(ref switchnet.PortRef) string {
	parts := make([]string, len(ref.Coords))
	for i, c := range ref.Coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, "/")
}

func contiguous(prev, next switchnet.PortRef) bool {
	if prev.Kind != next.Kind || len(prev.Coords) != len(next.Coords) || len(prev.Coords) == 0 {
		return false
	}
	last := len(prev.Coords) - 1
	for i := 0; i < last; i++ {
		if prev.Coords[i] != next.Coords[i] {
			return false
		}
	}
	return next.Coords[last] == prev.Coords[last]+1
}
