package tick

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockFireAssignsMonotonicIDs(t *testing.T) {
	c := newClock(ClockMain, MainInterval, nil)
	first := c.fire(time.Now(), MainInterval)
	second := c.fire(time.Now(), MainInterval)
	assert.Equal(t, uint64(1), first.ID)
	assert.Equal(t, uint64(2), second.ID)
}

func TestClockFireInvokesCallbacks(t *testing.T) {
	c := newClock(ClockMain, MainInterval, nil)
	var got []Snapshot
	c.RegisterCallback(func(s Snapshot) { got = append(got, s) })

	c.fire(time.Now(), MainInterval)
	c.fire(time.Now(), MainInterval)

	require.Len(t, got, 2)
	assert.Equal(t, ClockMain, got[0].Clock)
}

func TestClockFireRecoversFromPanickingCallback(t *testing.T) {
	c := newClock(ClockMain, MainInterval, nil)
	ran := false
	c.RegisterCallback(func(s Snapshot) { panic("boom") })
	c.RegisterCallback(func(s Snapshot) { ran = true })

	assert.NotPanics(t, func() { c.fire(time.Now(), MainInterval) })
	assert.True(t, ran)
}

func TestClockSnapshotsCappedAtHistory(t *testing.T) {
	c := newClock(ClockMain, MainInterval, nil)
	for i := 0; i < snapshotHistory+10; i++ {
		c.fire(time.Now(), MainInterval)
	}
	snaps := c.Snapshots()
	require.Len(t, snaps, snapshotHistory)
	assert.Equal(t, uint64(snapshotHistory+10), snaps[len(snaps)-1].ID)
}

func TestCurrentTickReflectsLastFired(t *testing.T) {
	c := newClock(ClockMain, MainInterval, nil)
	assert.Equal(t, uint64(0), c.CurrentTick())
	c.fire(time.Now(), MainInterval)
	assert.Equal(t, uint64(1), c.CurrentTick())
}
