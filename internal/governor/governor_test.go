package governor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/apperr"
)

func testLimits() Limits {
	return Limits{
		PerSwitchSlots:    1,
		PerSiteSlots:      1,
		GlobalSlots:       2,
		CommandsPerSecond: 100,
		AdmissionDeadline: 50 * time.Millisecond,
	}
}

func TestAcquireAndReleaseRoundTrips(t *testing.T) {
	g := New(testLimits())

	lease, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	lease.Release()

	// The slot must be free again; a second acquire should not block.
	lease2, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	lease2.Release()
}

func TestAcquireBlocksOnExhaustedSwitchSlot(t *testing.T) {
	g := New(testLimits())

	held, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	defer held.Release()

	_, err = g.Acquire(context.Background(), "hq", "sw1")
	require.Error(t, err)
	assert.Equal(t, apperr.Busy, apperr.KindOf(err))
}

func TestAcquireBlocksOnExhaustedSiteSlotAcrossSwitches(t *testing.T) {
	g := New(testLimits())

	held, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	defer held.Release()

	// Different switch, same site: site slot (capacity 1) is exhausted.
	_, err = g.Acquire(context.Background(), "hq", "sw2")
	require.Error(t, err)
	assert.Equal(t, apperr.Busy, apperr.KindOf(err))
}

func TestAcquireReleasesOuterSlotsWhenInnerAcquireFails(t *testing.T) {
	g := New(testLimits())

	held, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)

	_, err = g.Acquire(context.Background(), "hq", "sw2")
	require.Error(t, err)

	held.Release()

	// Two distinct sites should now be able to hold both global slots at
	// once; a global slot leaked by the failed site-scoped attempt above
	// would leave only one.
	lease, err := g.Acquire(context.Background(), "branch", "sw3")
	require.NoError(t, err)
	lease2, err := g.Acquire(context.Background(), "annex", "sw4")
	require.NoError(t, err)
	lease2.Release()
	lease.Release()
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	g := New(testLimits())

	held, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	defer held.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Acquire(ctx, "hq", "sw1")
	require.Error(t, err)
	assert.Equal(t, apperr.Busy, apperr.KindOf(err))
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := New(testLimits())

	lease, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)

	lease.Release()
	assert.NotPanics(t, func() { lease.Release() })

	// The slot must have been returned exactly once, so a fresh acquire
	// succeeds rather than blocking on a double-counted release.
	lease2, err := g.Acquire(context.Background(), "hq", "sw1")
	require.NoError(t, err)
	lease2.Release()
}

func TestAllowCommandConsumesRateLimiterTokens(t *testing.T) {
	g := New(Limits{CommandsPerSecond: 1000})
	err := g.AllowCommand(context.Background(), "sw1")
	assert.NoError(t, err)
}

func TestRecordResultTripsCircuitBreakerAfterConsecutiveFailures(t *testing.T) {
	g := New(testLimits())

	failure := apperr.New(apperr.Unreachable, "ssh dial failed")
	for i := 0; i < 5; i++ {
		g.RecordResult("sw1", failure)
	}

	_, err := g.Acquire(context.Background(), "hq", "sw1")
	require.Error(t, err)
	assert.Equal(t, apperr.Unreachable, apperr.KindOf(err))
}

func TestSetSiteCapacityFactorHalvesNewSiteChannels(t *testing.T) {
	g := New(Limits{PerSwitchSlots: 10, PerSiteSlots: 2, GlobalSlots: 10, CommandsPerSecond: 100, AdmissionDeadline: 50 * time.Millisecond})
	g.SetSiteCapacityFactor(true)

	first, err := g.Acquire(context.Background(), "newsite", "sw1")
	require.NoError(t, err)
	defer first.Release()

	// Halved capacity (2/2 = 1) means a second concurrent lease on the same
	// site must be refused even though PerSiteSlots is nominally 2.
	_, err = g.Acquire(context.Background(), "newsite", "sw2")
	require.Error(t, err)
	assert.Equal(t, apperr.Busy, apperr.KindOf(err))
}
