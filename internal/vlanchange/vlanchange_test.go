package vlanchange

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/auth"
	"github.com/dellswitch/switchctl/internal/credentials"
	"github.com/dellswitch/switchctl/internal/governor"
	"github.com/dellswitch/switchctl/internal/inventory"
	"github.com/dellswitch/switchctl/internal/switchdriver"
	"github.com/dellswitch/switchctl/internal/switchnet"
)

// fakeDriver serves canned DescribePorts/VLANExists/ApplyAccessVLAN
// responses keyed by port string, so each test shapes exactly the switch
// state its scenario needs.
type fakeDriver struct {
	portFacts     map[string]switchdriver.PortFacts
	vlanExists    bool
	applyOutcomes []switchdriver.Outcome
	applyErr      error
	saveErr       error
	applyCalls    int
	saveCalls     int
	closed        bool
}

func (f *fakeDriver) DescribePorts(_ context.Context, refs []switchnet.PortRef) ([]switchdriver.PortFacts, error) {
	out := make([]switchdriver.PortFacts, 0, len(refs))
	for _, ref := range refs {
		if pf, ok := f.portFacts[ref.String()]; ok {
			out = append(out, pf)
		}
	}
	return out, nil
}

func (f *fakeDriver) VLANExists(context.Context, switchnet.VlanID) (bool, error) {
	return f.vlanExists, nil
}

func (f *fakeDriver) ApplyAccessVLAN(context.Context, []switchdriver.CommandBlock) ([]switchdriver.Outcome, error) {
	f.applyCalls++
	return f.applyOutcomes, f.applyErr
}

func (f *fakeDriver) Save(context.Context) error {
	f.saveCalls++
	return f.saveErr
}

func (f *fakeDriver) Close() error {
	f.closed = true
	return nil
}

func newTestEngine(t *testing.T, fd *fakeDriver) (*Engine, *inventory.MemoryStore) {
	t.Helper()
	store := inventory.NewMemoryStore()
	store.PutSite(inventory.Site{Name: "hq"})
	store.PutSwitch(inventory.Switch{
		ID: "sw1", Site: "hq", Floor: "1", DisplayName: "sw1",
		Address: "10.0.0.1", Family: switchdriver.FamilyN3000, Enabled: true,
	})

	creds, err := credentials.NewStore(credentials.Credential{Username: "svc", Secret: "s3cr3t"})
	require.NoError(t, err)
	gov := governor.New(governor.DefaultLimits())

	eng := NewEngine(store, creds, gov, switchdriver.DialOptions{})
	eng.dial = func(context.Context, switchdriver.Endpoint, switchdriver.DialOptions) (switchDriver, error) {
		return fd, nil
	}
	return eng, store
}

func accessRef(port int) switchnet.PortRef {
	return switchnet.PortRef{Kind: switchnet.KindGigabitEthernet, Coords: []int{1, 0, port}}
}

func TestPreviewAssignsDispositions(t *testing.T) {
	willChange := accessRef(1)
	alreadyTarget := accessRef(2)
	uplink := accessRef(3)

	fd := &fakeDriver{
		vlanExists: true,
		portFacts: map[string]switchdriver.PortFacts{
			willChange.String():    {Ref: willChange, Mode: switchdriver.ModeAccess, AccessVLAN: 5},
			alreadyTarget.String(): {Ref: alreadyTarget, Mode: switchdriver.ModeAccess, AccessVLAN: 20},
			uplink.String():        {Ref: uplink, Mode: switchdriver.ModeTrunk, IsUplink: true},
		},
	}
	eng, _ := newTestEngine(t, fd)

	plan, err := eng.Preview(context.Background(), Request{
		SwitchID: "sw1",
		PortSpec: "Gi1/0/1,Gi1/0/2,Gi1/0/3",
		VLAN:     20,
	})
	require.NoError(t, err)
	require.Len(t, plan.Ports, 3)

	byPort := map[string]PortPlan{}
	for _, p := range plan.Ports {
		byPort[p.Ref.String()] = p
	}
	assert.Equal(t, WillChange, byPort[willChange.String()].Disposition)
	assert.Equal(t, AlreadyTarget, byPort[alreadyTarget.String()].Disposition)
	assert.Equal(t, SkipUplink, byPort[uplink.String()].Disposition)
	assert.True(t, fd.closed, "preview must close its driver connection")
	assert.True(t, plan.Safety.VlanExists)
	assert.True(t, plan.Safety.UplinkProtectionActive)
}

func TestPreviewRejectsAbsentVLAN(t *testing.T) {
	fd := &fakeDriver{vlanExists: false}
	eng, _ := newTestEngine(t, fd)

	_, err := eng.Preview(context.Background(), Request{SwitchID: "sw1", PortSpec: "Gi1/0/1", VLAN: 99})
	require.Error(t, err)
	assert.Equal(t, apperr.VlanAbsent, apperr.KindOf(err))
}

func TestPreviewRejectsMalformedPortSpec(t *testing.T) {
	fd := &fakeDriver{vlanExists: true}
	eng, _ := newTestEngine(t, fd)

	_, err := eng.Preview(context.Background(), Request{SwitchID: "sw1", PortSpec: "Gi1/0/1; rm -rf /", VLAN: 20})
	require.Error(t, err)
	assert.Equal(t, apperr.PortSpecFormat, apperr.KindOf(err))
}

func TestPreviewClassifiesUnknownPortKindForFamily(t *testing.T) {
	fd := &fakeDriver{vlanExists: true, portFacts: map[string]switchdriver.PortFacts{}}
	eng, _ := newTestEngine(t, fd) // switch is FamilyN3000, which has no "ethernet" kind

	plan, err := eng.Preview(context.Background(), Request{SwitchID: "sw1", PortSpec: "ethernet 1/1/1", VLAN: 20})
	require.NoError(t, err)
	require.Len(t, plan.Ports, 1)
	assert.Equal(t, UnknownPort, plan.Ports[0].Disposition)
	assert.False(t, plan.Safety.AllValidationsPassed)
}

func TestExecuteAppliesOnlyWillChangePorts(t *testing.T) {
	willChange := accessRef(1)
	alreadyTarget := accessRef(2)

	fd := &fakeDriver{
		vlanExists: true,
		portFacts: map[string]switchdriver.PortFacts{
			willChange.String():    {Ref: willChange, Mode: switchdriver.ModeAccess, AccessVLAN: 5},
			alreadyTarget.String(): {Ref: alreadyTarget, Mode: switchdriver.ModeAccess, AccessVLAN: 20},
		},
		applyOutcomes: []switchdriver.Outcome{{Ref: willChange, Applied: true}},
	}
	eng, _ := newTestEngine(t, fd)

	req := Request{SwitchID: "sw1", PortSpec: "Gi1/0/1,Gi1/0/2", VLAN: 20}
	plan, err := eng.Preview(context.Background(), req)
	require.NoError(t, err)

	receipt, err := eng.Execute(context.Background(), auth.RoleNetAdmin, req, plan.PlanHash)
	require.NoError(t, err)
	assert.Equal(t, 1, fd.applyCalls)
	assert.Equal(t, 1, fd.saveCalls)
	require.Len(t, receipt.Outcomes, 1)
	assert.Equal(t, willChange, receipt.Outcomes[0].Ref)
}

func TestExecuteRejectsDriftedPlan(t *testing.T) {
	ref := accessRef(1)
	fd := &fakeDriver{
		vlanExists: true,
		portFacts: map[string]switchdriver.PortFacts{
			ref.String(): {Ref: ref, Mode: switchdriver.ModeAccess, AccessVLAN: 5},
		},
	}
	eng, _ := newTestEngine(t, fd)

	req := Request{SwitchID: "sw1", PortSpec: "Gi1/0/1", VLAN: 20}
	_, err := eng.Execute(context.Background(), auth.RoleNetAdmin, req, "stale-hash-from-a-different-preview")
	require.Error(t, err)
	assert.Equal(t, apperr.PlanDrift, apperr.KindOf(err))
	assert.Zero(t, fd.applyCalls, "must never apply when the plan drifted")
}

func TestExecuteUplinkRequiresOverrideAndSuperAdmin(t *testing.T) {
	uplink := accessRef(1)
	fd := &fakeDriver{
		vlanExists: true,
		portFacts: map[string]switchdriver.PortFacts{
			uplink.String(): {Ref: uplink, Mode: switchdriver.ModeTrunk, IsUplink: true},
		},
	}
	eng, _ := newTestEngine(t, fd)
	req := Request{
		SwitchID: "sw1", PortSpec: "Gi1/0/1", VLAN: 20,
		Flags: Flags{OverrideUplinkProtection: true},
	}

	plan, err := eng.Preview(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, WillChange, plan.Ports[0].Disposition, "override flag must let the uplink reach will-change in preview")

	t.Run("net-admin is rejected even with override set", func(t *testing.T) {
		_, err := eng.Execute(context.Background(), auth.RoleNetAdmin, req, plan.PlanHash)
		require.Error(t, err)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
		assert.Zero(t, fd.applyCalls)
	})

	t.Run("super-admin with override succeeds", func(t *testing.T) {
		fd.applyOutcomes = []switchdriver.Outcome{{Ref: uplink, Applied: true}}
		_, err := eng.Execute(context.Background(), auth.RoleSuperAdmin, req, plan.PlanHash)
		require.NoError(t, err)
		assert.Equal(t, 1, fd.applyCalls)
	})
}

func TestExecuteSurfacesSaveFailureAsWarningNotError(t *testing.T) {
	ref := accessRef(1)
	fd := &fakeDriver{
		vlanExists: true,
		portFacts: map[string]switchdriver.PortFacts{
			ref.String(): {Ref: ref, Mode: switchdriver.ModeAccess, AccessVLAN: 5},
		},
		applyOutcomes: []switchdriver.Outcome{{Ref: ref, Applied: true}},
		saveErr:       apperr.New(apperr.Unreachable, "session dropped before save"),
	}
	eng, _ := newTestEngine(t, fd)
	req := Request{SwitchID: "sw1", PortSpec: "Gi1/0/1", VLAN: 20}

	plan, err := eng.Preview(context.Background(), req)
	require.NoError(t, err)

	receipt, err := eng.Execute(context.Background(), auth.RoleNetAdmin, req, plan.PlanHash)
	require.NoError(t, err, "a save failure must not fail an otherwise-successful execute")
	require.Len(t, receipt.Warnings, 1)
}
