package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAssignsMonotonicIDs(t *testing.T) {
	l := NewLogger(nil)
	l.Connection("alice", "connected")
	l.Connection("alice", "disconnected")

	events := l.Range(2)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(0), events[0].ID)
	assert.Equal(t, uint64(1), events[1].ID)
}

func TestRingBufferOverwritesOldestBeyondCapacity(t *testing.T) {
	l := NewLogger(nil)
	for i := 0; i < ringCapacity+5; i++ {
		l.Tick(uint64(i), "tick")
	}
	events := l.Range(ringCapacity)
	require.Len(t, events, ringCapacity)
	assert.Equal(t, uint64(5), events[0].ID)
	assert.Equal(t, uint64(ringCapacity+4), events[len(events)-1].ID)
}

func TestPlayerAggregatesCountsByType(t *testing.T) {
	l := NewLogger(nil)
	l.Violation("alice", "speed_hack", 1)
	l.Violation("alice", "speed_hack", 2)
	l.Combat("alice", 1, nil)

	agg := l.PlayerAggregates("alice")
	assert.Equal(t, 2, agg[EventViolation])
	assert.Equal(t, 1, agg[EventCombat])
}

func TestExportJSONLProducesOneLinePerEvent(t *testing.T) {
	l := NewLogger(nil)
	l.Connection("alice", "connected")
	l.Connection("bob", "connected")

	data, err := l.ExportJSONL(10)
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}

func TestTakeSnapshotCapsAtCapacity(t *testing.T) {
	l := NewLogger(nil)
	for i := 0; i < snapshotCapacity+3; i++ {
		l.TakeSnapshot(StateSnapshot{Tick: uint64(i)})
	}
	snaps := l.Snapshots()
	require.Len(t, snaps, snapshotCapacity)
	assert.Equal(t, uint64(3), snaps[0].Tick)
}

func TestCompareSnapshotsComputesDiff(t *testing.T) {
	a := StateSnapshot{
		Tick: 1,
		Entities: map[string]EntityState{
			"e1": {Position: [3]float64{0, 0, 0}, Health: 100},
			"e2": {Position: [3]float64{0, 0, 0}, Health: 50},
		},
	}
	b := StateSnapshot{
		Tick: 2,
		Entities: map[string]EntityState{
			"e1": {Position: [3]float64{3, 4, 0}, Health: 90},
			"e3": {Position: [3]float64{1, 1, 1}, Health: 10},
		},
	}
	diff := CompareSnapshots(a, b)
	assert.Equal(t, []string{"e2"}, diff.OnlyInA)
	assert.Equal(t, []string{"e3"}, diff.OnlyInB)
	assert.InDelta(t, 5.0, diff.PositionDelta["e1"], 1e-9)
	assert.Equal(t, -10, diff.HealthDelta["e1"])
}
