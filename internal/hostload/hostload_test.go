package hostload

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	th := Thresholds{YellowAt: 0.40, RedAt: 0.60}
	assert.Equal(t, Green, classify(0.1, th))
	assert.Equal(t, Yellow, classify(0.45, th))
	assert.Equal(t, Red, classify(0.75, th))
	assert.Equal(t, Red, classify(0.60, th))
}

func TestGuardTickTransitionsAndOnChange(t *testing.T) {
	var transitions []State
	values := []float64{0.1, 0.9, 0.9, 0.1}
	i := 0
	sample := func() (float64, error) {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v, nil
	}

	g := New(Thresholds{YellowAt: 0.40, RedAt: 0.60, WindowSize: 1}, sample, func(s State) {
		transitions = append(transitions, s)
	})
	require.Equal(t, Green, g.Current())

	g.tick() // 0.1 -> green, no transition
	assert.Equal(t, Green, g.Current())
	assert.Empty(t, transitions)

	g.tick() // 0.9 -> red
	assert.Equal(t, Red, g.Current())
	require.Len(t, transitions, 1)
	assert.Equal(t, Red, transitions[0])

	g.tick() // 0.9 -> red again, no new transition
	assert.Len(t, transitions, 1)

	g.tick() // 0.1 -> green
	assert.Equal(t, Green, g.Current())
	require.Len(t, transitions, 2)
	assert.Equal(t, Green, transitions[1])
}

func TestGuardAdmit(t *testing.T) {
	g := New(Thresholds{YellowAt: 0.40, RedAt: 0.60, WindowSize: 1}, func() (float64, error) { return 0.9, nil }, nil)
	assert.True(t, g.Admit())
	g.tick()
	assert.False(t, g.Admit())
}

func TestGuardSampleErrorLeavesClassificationUnchanged(t *testing.T) {
	g := New(Thresholds{YellowAt: 0.40, RedAt: 0.60, WindowSize: 1}, func() (float64, error) { return 0, errors.New("sample failed") }, nil)
	g.tick()
	assert.Equal(t, Green, g.Current())
}

func TestGuardSnapshotReportsSampleCountBeforeWindowFills(t *testing.T) {
	g := New(Thresholds{YellowAt: 0.40, RedAt: 0.60, WindowSize: 4}, func() (float64, error) { return 0.2, nil }, nil)
	g.tick()
	g.tick()
	snap := g.Snapshot()
	assert.Equal(t, 2, snap.SampleCount)
	assert.InDelta(t, 0.2, snap.AverageLoad, 0.001)
}

func TestGuardStartStop(t *testing.T) {
	var calls int32
	g := New(Thresholds{YellowAt: 0.40, RedAt: 0.60, SampleEvery: 5 * time.Millisecond, WindowSize: 1},
		func() (float64, error) {
			atomic.AddInt32(&calls, 1)
			return 0.1, nil
		}, nil)
	g.Start()
	time.Sleep(30 * time.Millisecond)
	g.Stop()
	assert.Greater(t, atomic.LoadInt32(&calls), int32(0))
}
