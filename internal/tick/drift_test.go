package tick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessClientTickWithinToleranceIsOK(t *testing.T) {
	d := NewDriftTracker()
	status := d.ProcessClientTick("alice", 100, 103)
	assert.Equal(t, DriftOK, status)
}

func TestProcessClientTickWarnsInMiddleBand(t *testing.T) {
	d := NewDriftTracker()
	status := d.ProcessClientTick("alice", 100, 108)
	assert.Equal(t, DriftWarn, status)
}

func TestProcessClientTickRequiresResyncBeyondThreshold(t *testing.T) {
	d := NewDriftTracker()
	status := d.ProcessClientTick("alice", 100, 120)
	assert.Equal(t, DriftRequiresResync, status)
}

func TestProcessClientTickPositiveDriftUsesAbsoluteValue(t *testing.T) {
	d := NewDriftTracker()
	status := d.ProcessClientTick("alice", 120, 100)
	assert.Equal(t, DriftRequiresResync, status)
}

func TestCurrentDriftReflectsLastSample(t *testing.T) {
	d := NewDriftTracker()
	d.ProcessClientTick("alice", 100, 103)
	assert.Equal(t, int64(-3), d.CurrentDrift("alice"))
}

func TestRemovePlayerClearsState(t *testing.T) {
	d := NewDriftTracker()
	d.ProcessClientTick("alice", 100, 103)
	d.RemovePlayer("alice")
	assert.Equal(t, int64(0), d.CurrentDrift("alice"))
}
