package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecovery() *Recovery {
	r := NewRecovery(nil)
	r.scheduleAfter = func(d time.Duration, fn func()) { fn() } // run synchronously for tests
	return r
}

func TestPreserveStoresSessionAndFiresEvent(t *testing.T) {
	r := newTestRecovery()
	var preservedPlayer string
	r.OnSessionPreserved(func(player string, disconnectMs int64) { preservedPlayer = player })

	r.Preserve("alice", "savedata", "worldslice")
	assert.Equal(t, "alice", preservedPlayer)
	assert.True(t, r.IsPreserved("alice"))
}

func TestPreserveSchedulesAITakeover(t *testing.T) {
	r := newTestRecovery()
	var takenOver string
	var behavior Behavior
	r.OnAITakeover(func(player string, b Behavior) {
		takenOver = player
		behavior = b
	})

	r.Preserve("alice", nil, nil)
	assert.Equal(t, "alice", takenOver)
	assert.Equal(t, BehaviorDefensive, behavior)
	assert.True(t, r.IsInvulnerable("alice"))
}

func TestIsInvulnerableExpiresAfterWindow(t *testing.T) {
	r := newTestRecovery()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	r.Preserve("alice", nil, nil)
	require.True(t, r.IsInvulnerable("alice"))

	fakeNow = fakeNow.Add(invulnerability + time.Second)
	assert.False(t, r.IsInvulnerable("alice"))
}

func TestRestoreSessionReturnsDataAndClearsAIControl(t *testing.T) {
	r := newTestRecovery()
	var reconnected string
	r.OnPlayerReconnected(func(player string, d time.Duration) { reconnected = player })

	r.Preserve("alice", "savedata", "worldslice")
	data, ok := r.RestoreSession("alice")
	require.True(t, ok)
	assert.Equal(t, "savedata", data.SaveData)
	assert.Equal(t, "alice", reconnected)
	assert.False(t, r.IsPreserved("alice"))
}

func TestRestoreSessionFailsAfterExpiry(t *testing.T) {
	r := newTestRecovery()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	r.Preserve("alice", nil, nil)
	fakeNow = fakeNow.Add(preserveExpiry + time.Second)

	_, ok := r.RestoreSession("alice")
	assert.False(t, ok)
}

func TestSweepRemovesExpiredPreservedSessions(t *testing.T) {
	r := newTestRecovery()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	r.Preserve("alice", nil, nil)
	fakeNow = fakeNow.Add(preserveExpiry + time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.False(t, r.IsPreserved("alice"))
}

func TestDegradationForLowLatencyNoChanges(t *testing.T) {
	pol := DegradationFor(50 * time.Millisecond)
	assert.Zero(t, pol.InterpBufferMs)
	assert.False(t, pol.ReduceUpdateRate)
}

func TestDegradationForModerateLatencyReducesRate(t *testing.T) {
	pol := DegradationFor(300 * time.Millisecond)
	assert.True(t, pol.ReduceUpdateRate)
	assert.Equal(t, int64(500), pol.InterpBufferMs) // clamped to maxInterpBuffer
	assert.False(t, pol.ReduceSyncScope)
}

func TestDegradationForHighLatencyReducesScope(t *testing.T) {
	pol := DegradationFor(600 * time.Millisecond)
	assert.True(t, pol.ReduceSyncScope)
	assert.True(t, pol.DisableNonEssential)
}

func TestDegradationForUnhealthyLatencyPreparesDisconnect(t *testing.T) {
	pol := DegradationFor(2 * time.Second)
	assert.True(t, pol.PrepareForDisconnect)
}
