// Package governor implements the Concurrency Governor: the process-wide
// admission control that protects switch vty lines, a site's blast radius,
// and the host/peer network from an unbounded number of concurrent SSH
// sessions. Slots are modeled as buffered channels, the same counting-
// semaphore idiom the orchestrator health checker uses for bounding
// concurrent probes.
package governor

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/dellswitch/switchctl/internal/apperr"
)

// Limits configures the three semaphore capacities and the per-switch
// commands-per-second budget. Zero fields fall back to the package
// defaults.
type Limits struct {
	PerSwitchSlots      int
	PerSiteSlots        int
	GlobalSlots         int
	CommandsPerSecond   int
	AdmissionDeadline   time.Duration
}

// DefaultLimits mirrors the documented defaults: 8 per switch, 10 per site,
// 64 global, 10 commands/sec per switch, and a 5s admission deadline.
func DefaultLimits() Limits {
	return Limits{
		PerSwitchSlots:    8,
		PerSiteSlots:      10,
		GlobalSlots:       64,
		CommandsPerSecond: 10,
		AdmissionDeadline: 5 * time.Second,
	}
}

// Governor owns the global slot, the per-site slots, the per-switch slots,
// a per-switch command-rate limiter, and a per-switch circuit breaker.
type Governor struct {
	limits Limits

	global chan struct{}

	mu       sync.Mutex
	sites    map[string]chan struct{}
	switches map[string]chan struct{}
	limiters map[string]*rateLimiter
	breakers map[string]*gobreaker.CircuitBreaker[any]

	// siteSlotOverride, set by the host-load guard's yellow state, halves
	// the effective per-site capacity for newly created site channels.
	siteSlotOverride int
}

// New constructs a Governor with the given limits, falling back to
// DefaultLimits for any zero field.
func New(limits Limits) *Governor {
	d := DefaultLimits()
	if limits.PerSwitchSlots == 0 {
		limits.PerSwitchSlots = d.PerSwitchSlots
	}
	if limits.PerSiteSlots == 0 {
		limits.PerSiteSlots = d.PerSiteSlots
	}
	if limits.GlobalSlots == 0 {
		limits.GlobalSlots = d.GlobalSlots
	}
	if limits.CommandsPerSecond == 0 {
		limits.CommandsPerSecond = d.CommandsPerSecond
	}
	if limits.AdmissionDeadline == 0 {
		limits.AdmissionDeadline = d.AdmissionDeadline
	}

	return &Governor{
		limits:           limits,
		global:           make(chan struct{}, limits.GlobalSlots),
		sites:            make(map[string]chan struct{}),
		switches:         make(map[string]chan struct{}),
		limiters:         make(map[string]*rateLimiter),
		breakers:         make(map[string]*gobreaker.CircuitBreaker[any]),
		siteSlotOverride: limits.PerSiteSlots,
	}
}

// SetSiteCapacityFactor is called by the host-load guard to halve (yellow)
// or restore (green) the per-site slot count for sites created from this
// point forward. Sites already admitted keep their original capacity for
// in-flight leases; this only changes future acquisitions' competing pool
// size, matching the "admit, but reduce" yellow policy — existing lease
// holders are never revoked.
func (g *Governor) SetSiteCapacityFactor(halved bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if halved {
		g.siteSlotOverride = max(1, g.limits.PerSiteSlots/2)
	} else {
		g.siteSlotOverride = g.limits.PerSiteSlots
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Lease represents an admitted session; Release must be called exactly once
// on every exit path.
type Lease struct {
	g        *Governor
	site     string
	switchID string
	released bool
	mu       sync.Mutex
}

func (g *Governor) siteChan(site string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.sites[site]
	if !ok {
		ch = make(chan struct{}, g.siteSlotOverride)
		g.sites[site] = ch
	}
	return ch
}

func (g *Governor) switchChan(switchID string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.switches[switchID]
	if !ok {
		ch = make(chan struct{}, g.limits.PerSwitchSlots)
		g.switches[switchID] = ch
	}
	return ch
}

func (g *Governor) breaker(switchID string) *gobreaker.CircuitBreaker[any] {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.breakers[switchID]
	if !ok {
		b = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        switchID,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
		g.breakers[switchID] = b
	}
	return b
}

func (g *Governor) limiter(switchID string) *rateLimiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[switchID]
	if !ok {
		l = newRateLimiter(g.limits.CommandsPerSecond)
		g.limiters[switchID] = l
	}
	return l
}

// Acquire admits one session against site and switchID, honoring the fixed
// global→site→switch order and releasing already-acquired outer resources
// if a later one cannot be acquired within the admission deadline (or ctx is
// canceled first). It returns apperr.Busy on deadline/cancellation, or
// apperr.Unreachable if the switch's circuit breaker is open.
func (g *Governor) Acquire(ctx context.Context, site, switchID string) (*Lease, error) {
	if b := g.breaker(switchID); b.State() == gobreaker.StateOpen {
		return nil, apperr.New(apperr.Unreachable, "switch circuit breaker open, too many recent failures")
	}

	deadline := time.Now().Add(g.limits.AdmissionDeadline)
	acquireCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	if err := acquireOne(acquireCtx, g.global); err != nil {
		return nil, apperr.New(apperr.Busy, "global concurrency slots exhausted")
	}

	siteCh := g.siteChan(site)
	if err := acquireOne(acquireCtx, siteCh); err != nil {
		<-g.global
		return nil, apperr.New(apperr.Busy, "site concurrency slots exhausted")
	}

	switchCh := g.switchChan(switchID)
	if err := acquireOne(acquireCtx, switchCh); err != nil {
		<-siteCh
		<-g.global
		return nil, apperr.New(apperr.Busy, "switch concurrency slots exhausted")
	}

	return &Lease{g: g, site: site, switchID: switchID}, nil
}

func acquireOne(ctx context.Context, ch chan struct{}) error {
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release gives back the switch, site, and global slots in reverse order of
// acquisition. Safe to call more than once; only the first call has effect.
func (l *Lease) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		return
	}
	l.released = true
	<-l.g.switchChan(l.switchID)
	<-l.g.siteChan(l.site)
	<-l.g.global
}

// AllowCommand consumes one token from switchID's commands-per-second
// bucket, blocking until one is available or ctx is done. It is called once
// per CLI write issued to the switch (§4.2).
func (g *Governor) AllowCommand(ctx context.Context, switchID string) error {
	return g.limiter(switchID).wait(ctx)
}

// RecordResult feeds a driver operation's outcome to switchID's circuit
// breaker so that a switch that is failing every call trips the breaker and
// stops admitting new leases until its cooldown elapses.
func (g *Governor) RecordResult(switchID string, err error) {
	b := g.breaker(switchID)
	_, _ = b.Execute(func() (any, error) { return nil, err })
}
