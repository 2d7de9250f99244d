// Package mactrace implements the MAC Trace Engine: given a MAC address and
// a (site, floor) scope, fan out across that scope's enabled switches and
// report every port the MAC was found behind.
package mactrace

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/credentials"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/switchdriver"
	"github.com/dellswitch/switchctl/internal/switchnet"
)

// Budget bounds the whole fan-out, independent of any per-switch
// connection timeout, so a single wedged switch can't stall the trace.
const Budget = 60 * time.Second

// FailureStatus classifies why a switch contributed no hit.
type FailureStatus string

const (
	StatusUnreachable FailureStatus = "unreachable"
	StatusAuthFailed  FailureStatus = "auth-failed"
	StatusTimeout     FailureStatus = "timeout"
	StatusParseFailed FailureStatus = "parse-failed"
)

// Hit is one port the MAC was seen behind. For a viewer principal Facts is
// trimmed to the fields §4.4 allows them to see.
type Hit struct {
	SwitchID   string
	SwitchName string
	Port       switchnet.PortRef
	Facts      switchdriver.PortFacts
}

// SwitchFailure records that a switch in scope could not be queried.
type SwitchFailure struct {
	SwitchID   string
	SwitchName string
	Status     FailureStatus
}

// Outcome summarizes the overall result beyond the raw hit/failure lists.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeNoResults    Outcome = "no-results"
	OutcomeFailuresOnly Outcome = "no-results-due-to-failures"
)

// Result is the full trace response.
type Result struct {
	Hits     []Hit
	Failures []SwitchFailure
	Outcome  Outcome
}

// switchDriver is the slice of *switchdriver.Driver this engine depends on,
// broken out so tests can substitute a fake instead of dialing real SSH.
type switchDriver interface {
	FindMAC(ctx context.Context, mac switchnet.MAC) (switchnet.PortRef, bool, error)
	DescribePorts(ctx context.Context, refs []switchnet.PortRef) ([]switchdriver.PortFacts, error)
	Close() error
}

// Engine runs MAC traces against an inventory scope, gated by a Governor
// and dialing switches with the process-wide credential.
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

// Trace canonicalizes macInput, resolves the (site, floor) scope's enabled
// switches, and queries every one of them concurrently, gated by the
// Governor's per-switch/per-site/global admission limits and circuit
// breakers. The returned Result's Hits are already filtered for role.
func (e *Engine) Trace(ctx context.Context, site, floor, macInput string, role auth.Role) (Result, error) {
	mac, err := switchnet.ParseMAC(macInput)
	if err != nil {
		return Result{}, err
	}

	switches, err := e.Inventory.Switches(ctx, site, floor)
	if err != nil {
		return Result{}, err
	}
	if len(switches) == 0 {
		return Result{Outcome: OutcomeNoResults}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, Budget)
	defer cancel()

	outcomes := make([]traceOutcome, len(switches))

	// A zero-value Group (no WithContext) never cancels siblings on a
	// per-switch failure; traceOne reports failures into outcomes rather
	// than through the returned error, so Wait's result is always nil.
	var grp errgroup.Group
	for i, sw := range switches {
		i, sw := i, sw
		grp.Go(func() error {
			outcomes[i] = e.traceOne(ctx, sw, mac)
			return nil
		})
	}
	_ = grp.Wait()

	var result Result
	for _, o := range outcomes {
		if o.hit != nil {
			result.Hits = append(result.Hits, *o.hit)
		}
		if o.sf != nil {
			result.Failures = append(result.Failures, *o.sf)
		}
	}

	result.Hits = filterForRole(result.Hits, role)

	sort.Slice(result.Hits, func(i, j int) bool {
		if result.Hits[i].SwitchName != result.Hits[j].SwitchName {
			return result.Hits[i].SwitchName < result.Hits[j].SwitchName
		}
		return result.Hits[i].Port.Less(result.Hits[j].Port)
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].SwitchName < result.Failures[j].SwitchName
	})

	switch {
	case len(result.Hits) > 0:
		result.Outcome = OutcomeOK
	case len(result.Failures) == len(switches):
		result.Outcome = OutcomeFailuresOnly
	default:
		result.Outcome = OutcomeNoResults
	}
	return result, nil
}

type traceOutcome = struct {
	hit *Hit
	sf  *SwitchFailure
}

// traceOne queries a single switch, acquiring and releasing a Governor
// lease around the whole connection lifetime and feeding the result back
// into the breaker/rate-limiter state via RecordResult.
func (e *Engine) traceOne(ctx context.Context, sw inventory.Switch, mac switchnet.MAC) traceOutcome {
	lease, err := e.Governor.Acquire(ctx, sw.Site, sw.ID)
	if err != nil {
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: classify(err)}}
	}
	defer lease.Release()

	if err := e.Governor.AllowCommand(ctx, sw.ID); err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: classify(err)}}
	}

	cred, err := e.Credentials.Get()
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: StatusUnreachable}}
	}

	endpoint := switchdriver.Endpoint{
		Host:     sw.Address,
		Username: cred.Username,
		Password: cred.Secret,
		Family:   sw.Family,
	}
	driver, err := e.dial(ctx, endpoint, e.DialOpts)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: classify(err)}}
	}
	defer driver.Close()

	ref, found, err := driver.FindMAC(ctx, mac)
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: classify(err)}}
	}
	if !found {
		e.Governor.RecordResult(sw.ID, nil)
		return traceOutcome{}
	}

	facts, err := driver.DescribePorts(ctx, []switchnet.PortRef{ref})
	if err == nil && len(facts) != 1 {
		err = apperr.New(apperr.ParseFailure, "describe_ports returned an unexpected number of results")
	}
	if err != nil {
		e.Governor.RecordResult(sw.ID, err)
		return traceOutcome{sf: &SwitchFailure{SwitchID: sw.ID, SwitchName: sw.DisplayName, Status: classify(err)}}
	}
	e.Governor.RecordResult(sw.ID, nil)

	return traceOutcome{hit: &Hit{
		SwitchID:   sw.ID,
		SwitchName: sw.DisplayName,
		Port:       ref,
		Facts:      facts[0],
	}}
}

// classify maps a driver/governor error to the failure status §4.4 exposes
// to the caller. Kinds that don't naturally land in one of the four named
// buckets (e.g. a Busy from the governor's slot wait) fall back to unreachable,
// since from the caller's point of view the switch was not contactable
// either way.
func classify(err error) FailureStatus {
	switch apperr.KindOf(err) {
	case apperr.AuthRejected:
		return StatusAuthFailed
	case apperr.Timeout:
		return StatusTimeout
	case apperr.ParseFailure:
		return StatusParseFailed
	default:
		return StatusUnreachable
	}
}

// filterForRole trims hits for principals below net-admin: §4.4 only lets a
// viewer see non-uplink access-mode hits, and only the fields needed to
// answer "is this MAC live and where", not the full port configuration.
func filterForRole(hits []Hit, role auth.Role) []Hit {
	if role.HasPermission(auth.RoleNetAdmin) {
		return hits
	}
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Facts.IsUplink || h.Facts.Mode != switchdriver.ModeAccess {
			continue
		}
		out = append(out, Hit{
			SwitchID:   h.SwitchID,
			SwitchName: h.SwitchName,
			Port:       h.Port,
			Facts: switchdriver.PortFacts{
				Ref:        h.Facts.Ref,
				Mode:       h.Facts.Mode,
				AccessVLAN: h.Facts.AccessVLAN,
				IsUplink:   h.Facts.IsUplink,
			},
		})
	}
	return out
}
