// Package vlanchange implements the VLAN Change Engine: a two-phase
// preview/execute state machine for reassigning a set of ports to a target
// access VLAN, with the safety invariants that keep a mistaken port-spec or
// a stale preview from ever touching the wrong port.
package vlanchange

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/credentials"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/switchdriver"
	"github.com/dellswitch/switchctl/internal/switchnet"
)

// Disposition is the per-port verdict a preview assigns.
type Disposition string

const (
	WillChange    Disposition = "will-change"
	AlreadyTarget Disposition = "already-target"
	SkipUplink    Disposition = "skip-uplink"
	SkipNonAccess Disposition = "skip-non-access"
	UnknownPort   Disposition = "unknown-port"
)

// Flags are the caller-controlled behavior switches §4.5 names.
type Flags struct {
	IncludeVlanName          bool
	OverrideUplinkProtection bool
	SkipNonAccessPorts       bool
}

// Request is the shared input shape for both preview and execute.
type Request struct {
	SwitchID string
	PortSpec string
	VLAN     int
	Flags    Flags
}

// PortPlan is one port's disposition plus the facts it was computed from.
type PortPlan struct {
	Ref                switchnet.PortRef
	Disposition        Disposition
	PreviousAccessVLAN switchnet.VlanID
	IsUplink           bool
}

// SafetySummary is the structured safety readout §4.5 step 5 requires.
type SafetySummary struct {
	AllValidationsPassed   bool
	VlanExists             bool
	SwitchReachable        bool
	UplinkProtectionActive bool
}

// ChangePlan is the full preview result.
type ChangePlan struct {
	SwitchID          string
	VLAN              switchnet.VlanID
	Ports             []PortPlan
	Commands          []string
	EstimatedDuration string
	Safety            SafetySummary
	PlanHash          string
}

// ChangeReceipt is the execute result.
type ChangeReceipt struct {
	SwitchID         string
	VLAN             switchnet.VlanID
	Outcomes         []switchdriver.Outcome
	CommandsExecuted []string
	Warnings         []string
	Duration         time.Duration
}

// switchDriver is the slice of *switchdriver.Driver this engine depends on;
// broken out, as in internal/mactrace, so tests substitute a fake instead
// of dialing real SSH.
type switchDriver interface {
	DescribePorts(ctx context.Context, refs []switchnet.PortRef) ([]switchdriver.PortFacts, error)
	VLANExists(ctx context.Context, vlan switchnet.VlanID) (bool, error)
	ApplyAccessVLAN(ctx context.Context, blocks []switchdriver.CommandBlock) ([]switchdriver.Outcome, error)
	Save(ctx context.Context) error
	Close() error
}

// Engine runs VLAN change previews and executes against a single switch at
// a time, gated by the same Governor the MAC Trace Engine shares.
type Engine struct {
	Inventory   inventory.Reader
	Credentials *credentials.Store
	Governor    *governor.Governor
	DialOpts    switchdriver.DialOptions

	dial func(ctx context.Context, endpoint switchdriver.Endpoint, opts switchdriver.DialOptions) (switchDriver, error)
}

// NewEngine constructs an Engine with the given collaborators.
func NewEngine(inv inventory.Reader, creds *credentials.Store, gov *governor.Governor, opts switchdriver.DialOptions) *Engine {
	return &Engine{
		Inventory:   inv,
		Credentials: creds,
		Governor:    gov,
		DialOpts:    opts,
		dial: func(ctx context.Context, endpoint switchdriver.Endpoint, opts switchdriver.DialOptions) (switchDriver, error) {
			return switchdriver.Dial(ctx, endpoint, opts)
		},
	}
}

// Preview validates req and returns the ChangePlan the caller must present
// back, unmodified, to Execute.
func (e *Engine) Preview(ctx context.Context, req Request) (ChangePlan, error) {
	plan, _, driver, err := e.buildPlan(ctx, req)
	if driver != nil {
		driver.Close()
	}
	return plan, err
}

// Execute re-derives the plan from fresh switch state and compares its hash
// against observedPlanHash (the hash the caller's prior Preview returned).
// A mismatch means the switch's state moved between preview and execute and
// the request is rejected with PlanDrift rather than risk acting on stale
// dispositions. S2 (uplink change needs override + super-admin) is
// enforced here, against the freshly computed plan, not the caller's.
func (e *Engine) Execute(ctx context.Context, principal auth.Role, req Request, observedPlanHash string) (ChangeReceipt, error) {
	start := time.Now()

	plan, fam, driver, err := e.buildPlan(ctx, req)
	if err != nil {
		return ChangeReceipt{}, err
	}
	defer driver.Close()

	if plan.PlanHash != observedPlanHash {
		return ChangeReceipt{}, apperr.New(apperr.PlanDrift, "switch state changed since preview; preview again")
	}

	for _, p := range plan.Ports {
		if p.Disposition == WillChange && p.IsUplink {
			if !req.Flags.OverrideUplinkProtection || principal != auth.RoleSuperAdmin {
				return ChangeReceipt{}, apperr.New(apperr.Forbidden,
					"changing an uplink port requires override_uplink_protection and super-admin")
			}
		}
	}

	willChange := make([]switchnet.PortRef, 0, len(plan.Ports))
	for _, p := range plan.Ports {
		if p.Disposition == WillChange {
			willChange = append(willChange, p.Ref)
		}
	}
	blocks := switchdriver.BuildAccessVLANBlocks(fam, willChange, plan.VLAN)

	if n := commandCount(blocks); n > maxCommandCount(len(blocks)) {
		return ChangeReceipt{}, apperr.New(apperr.Internal, fmt.Sprintf("command count %d exceeds the per-switch safety bound", n))
	}

	outcomes, applyErr := driver.ApplyAccessVLAN(ctx, blocks)

	receipt := ChangeReceipt{
		SwitchID:         req.SwitchID,
		VLAN:             plan.VLAN,
		Outcomes:         outcomes,
		CommandsExecuted: flattenCommands(blocks),
	}

	if applyErr != nil {
		receipt.Duration = time.Since(start)
		return receipt, applyErr
	}

	if saveErr := driver.Save(ctx); saveErr != nil {
		receipt.Warnings = append(receipt.Warnings, "failed to persist running configuration: "+saveErr.Error())
	}

	receipt.Duration = time.Since(start)
	return receipt, nil
}

// buildPlan is shared by Preview and the re-preview step inside Execute: it
// validates the request, dials the switch, and computes dispositions from
// fresh describe_ports/VLAN-existence data. The caller owns closing the
// returned driver.
func (e *Engine) buildPlan(ctx context.Context, req Request) (ChangePlan, switchdriver.Family, switchDriver, error) {
	vlan, err := switchnet.ParseVlanID(req.VLAN)
	if err != nil {
		return ChangePlan{}, "", nil, err
	}
	refs, err := switchnet.ParsePortSpec(req.PortSpec)
	if err != nil {
		return ChangePlan{}, "", nil, err
	}

	sw, err := e.Inventory.Switch(ctx, req.SwitchID)
	if err != nil {
		return ChangePlan{}, "", nil, err
	}
	if !sw.Enabled {
		return ChangePlan{}, "", nil, apperr.New(apperr.SwitchUnknown, "switch "+req.SwitchID+" is disabled")
	}
	if !sw.Family.Valid() || sw.Family == switchdriver.FamilyUnknown {
		return ChangePlan{}, "", nil, apperr.New(apperr.Unsupported, "switch family must be known to plan a write operation")
	}

	lease, err := e.Governor.Acquire(ctx, sw.Site, sw.ID)
	if err != nil {
		return ChangePlan{}, "", nil, err
	}
	defer lease.Release()

	if err := e.Governor.AllowCommand(ctx, sw.ID); err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return ChangePlan{}, "", nil, err
	}

	cred, err := e.Credentials.Get()
	if err != nil {
		return ChangePlan{}, "", nil, err
	}
	endpoint := switchdriver.Endpoint{Host: sw.Address, Username: cred.Username, Password: cred.Secret, Family: sw.Family}
	driver, err := e.dial(ctx, endpoint, e.DialOpts)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return ChangePlan{}, "", nil, err
	}

	exists, err := driver.VLANExists(ctx, vlan)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		driver.Close()
		return ChangePlan{}, "", nil, err
	}
	if !exists {
		e.Governor.RecordResult(sw.ID, nil)
		driver.Close()
		return ChangePlan{}, "", nil, apperr.New(apperr.VlanAbsent, fmt.Sprintf("vlan %d does not exist on switch %s", vlan, sw.ID))
	}

	validRefs := make([]switchnet.PortRef, 0, len(refs))
	unknownRefs := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if switchdriver.ValidPortKind(sw.Family, ref.Kind) {
			validRefs = append(validRefs, ref)
			continue
		}
		unknownRefs[ref.String()] = true
	}

	facts, err := driver.DescribePorts(ctx, validRefs)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		driver.Close()
		return ChangePlan{}, "", nil, err
	}
	e.Governor.RecordResult(sw.ID, nil)

	factsByRef := make(map[string]switchdriver.PortFacts, len(facts))
	for _, f := range facts {
		factsByRef[f.Ref.String()] = f
	}

	allValid := true
	ports := make([]PortPlan, 0, len(refs))
	willChange := make([]switchnet.PortRef, 0, len(refs))
	for _, ref := range refs {
		key := ref.String()
		if unknownRefs[key] {
			allValid = false
			ports = append(ports, PortPlan{Ref: ref, Disposition: UnknownPort})
			continue
		}
		f, ok := factsByRef[key]
		if !ok || f.Mode == switchdriver.ModeUnknown {
			allValid = false
			ports = append(ports, PortPlan{Ref: ref, Disposition: UnknownPort})
			continue
		}

		p := PortPlan{Ref: ref, PreviousAccessVLAN: f.AccessVLAN, IsUplink: f.IsUplink}
		switch {
		case f.IsUplink && !req.Flags.OverrideUplinkProtection:
			p.Disposition = SkipUplink
		case f.Mode != switchdriver.ModeAccess && req.Flags.SkipNonAccessPorts:
			p.Disposition = SkipNonAccess
		case f.Mode == switchdriver.ModeAccess && f.AccessVLAN == vlan:
			p.Disposition = AlreadyTarget
		default:
			p.Disposition = WillChange
			willChange = append(willChange, ref)
		}
		ports = append(ports, p)
	}

	blocks := switchdriver.BuildAccessVLANBlocks(sw.Family, willChange, vlan)

	plan := ChangePlan{
		SwitchID:          sw.ID,
		VLAN:              vlan,
		Ports:             ports,
		Commands:          flattenCommands(blocks),
		EstimatedDuration: durationBand(len(willChange)),
		Safety: SafetySummary{
			AllValidationsPassed:   allValid,
			VlanExists:             true,
			SwitchReachable:        true,
			UplinkProtectionActive: !req.Flags.OverrideUplinkProtection,
		},
	}
	plan.PlanHash = hashPlan(ports, vlan)
	return plan, sw.Family, driver, nil
}

// CheckVLAN reports whether vlan exists on switchID, for the standalone
// /api/vlan/check endpoint (§6) which doesn't need a port spec or a plan.
func (e *Engine) CheckVLAN(ctx context.Context, switchID string, vlanNum int) (bool, error) {
	vlan, err := switchnet.ParseVlanID(vlanNum)
	if err != nil {
		return false, err
	}
	sw, err := e.Inventory.Switch(ctx, switchID)
	if err != nil {
		return false, err
	}

	lease, err := e.Governor.Acquire(ctx, sw.Site, sw.ID)
	if err != nil {
		return false, err
	}
	defer lease.Release()
	if err := e.Governor.AllowCommand(ctx, sw.ID); err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return false, err
	}

	cred, err := e.Credentials.Get()
	if err != nil {
		return false, err
	}
	endpoint := switchdriver.Endpoint{Host: sw.Address, Username: cred.Username, Password: cred.Secret, Family: sw.Family}
	driver, err := e.dial(ctx, endpoint, e.DialOpts)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return false, err
	}
	defer driver.Close()

	exists, err := driver.VLANExists(ctx, vlan)
	e.Governor.RecordResult(sw.ID, err)
	return exists, err
}

// DescribePorts reports the current facts for portSpec's ports on switchID,
// for the standalone /api/port/status endpoint (§6).
func (e *Engine) DescribePorts(ctx context.Context, switchID, portSpec string) ([]switchdriver.PortFacts, error) {
	refs, err := switchnet.ParsePortSpec(portSpec)
	if err != nil {
		return nil, err
	}
	sw, err := e.Inventory.Switch(ctx, switchID)
	if err != nil {
		return nil, err
	}

	lease, err := e.Governor.Acquire(ctx, sw.Site, sw.ID)
	if err != nil {
		return nil, err
	}
	defer lease.Release()
	if err := e.Governor.AllowCommand(ctx, sw.ID); err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return nil, err
	}

	cred, err := e.Credentials.Get()
	if err != nil {
		return nil, err
	}
	endpoint := switchdriver.Endpoint{Host: sw.Address, Username: cred.Username, Password: cred.Secret, Family: sw.Family}
	driver, err := e.dial(ctx, endpoint, e.DialOpts)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return nil, err
	}
	defer driver.Close()

	facts, err := driver.DescribePorts(ctx, refs)
	e.Governor.RecordResult(sw.ID, err)
	return facts, err
}

// hashPlan computes a stable hash of (refs, dispositions, vlan) so Execute
// can detect that the switch's state moved between preview and execute
// (§4.5 step 1 of execute).
func hashPlan(ports []PortPlan, vlan switchnet.VlanID) string {
	sorted := append([]PortPlan(nil), ports...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ref.Less(sorted[j].Ref) })

	var sb strings.Builder
	fmt.Fprintf(&sb, "vlan=%d;", vlan)
	for _, p := range sorted {
		fmt.Fprintf(&sb, "%s=%s;", p.Ref.String(), p.Disposition)
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

func flattenCommands(blocks []switchdriver.CommandBlock) []string {
	var out []string
	for _, b := range blocks {
		out = append(out, b.Commands...)
	}
	return out
}

// maxCommandCount is the S3 safety bound for the commands ApplyAccessVLAN
// and the subsequent Save will issue for a plan with nBlocks command
// blocks: one to enter config mode, three per block (enter interface, set
// vlan, exit interface), one to return to privileged exec, one to save.
func maxCommandCount(nBlocks int) int {
	return 3 + nBlocks*3
}

func commandCount(blocks []switchdriver.CommandBlock) int {
	n := 3 // enter config mode, end, save
	for _, b := range blocks {
		n += len(b.Commands)
	}
	return n
}

// durationBand buckets a will-change port count into a coarse estimate
// §4.5 step 4 asks for, rather than a precise prediction this system has
// no basis to make.
func durationBand(nPorts int) string {
	switch {
	case nPorts == 0:
		return "instant"
	case nPorts <= 5:
		return "under 1 minute"
	case nPorts <= 25:
		return "1-3 minutes"
	default:
		return "3-10 minutes"
	}
}
