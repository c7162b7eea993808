package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHeartbeatEstimatesLatency(t *testing.T) {
	h := NewHeartbeatTracker(nil)
	fakeNow := time.Now()
	h.nowFn = func() time.Time { return fakeNow }

	h.RecordHeartbeat("alice", fakeNow.Add(-100*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, h.EstimatedLatency("alice"))
}

func TestSweepFiresTimeoutOnceForStaleClient(t *testing.T) {
	h := NewHeartbeatTracker(nil)
	fakeNow := time.Now()
	h.nowFn = func() time.Time { return fakeNow }

	var fired []string
	h.OnHeartbeatTimeout(func(player string) { fired = append(fired, player) })

	h.Register("alice")
	fakeNow = fakeNow.Add(heartbeatTimeout + time.Second)

	first := h.Sweep()
	require.Equal(t, []string{"alice"}, first)
	require.Equal(t, []string{"alice"}, fired)

	second := h.Sweep()
	assert.Empty(t, second)
	assert.Len(t, fired, 1)
}

func TestRecordHeartbeatResetsTimeoutState(t *testing.T) {
	h := NewHeartbeatTracker(nil)
	fakeNow := time.Now()
	h.nowFn = func() time.Time { return fakeNow }

	h.Register("alice")
	fakeNow = fakeNow.Add(heartbeatTimeout + time.Second)
	h.Sweep()

	h.RecordHeartbeat("alice", fakeNow)
	again := h.Sweep()
	assert.Empty(t, again)
}
