package conflict

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitActionGrantsLockToFirstSubmitter(t *testing.T) {
	r := NewResolver()
	seq, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, seq)
}

func TestSubmitActionRejectsOtherSubmitterWithinWindow(t *testing.T) {
	r := NewResolver()
	_, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 1, nil)
	require.NoError(t, err)

	_, err = r.SubmitAction("npc-1", "bob", TypeNPCRecruit, 1, nil)
	require.Error(t, err)
	var rej *LockRejected
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "alice", rej.HolderID)
}

func TestSubmitActionSameSubmitterRefreshesLock(t *testing.T) {
	r := NewResolver()
	_, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 1, nil)
	require.NoError(t, err)
	seq, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, seq)
}

func TestSubmitActionPreemptsExpiredLock(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	_, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 1, nil)
	require.NoError(t, err)

	fakeNow = fakeNow.Add(conflictWindow + time.Millisecond)
	_, err = r.SubmitAction("npc-1", "bob", TypeNPCRecruit, 2, nil)
	require.NoError(t, err)
}

func TestResolveFirstWinsPicksEarliestReceived(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	_, err := r.SubmitAction("item-1", "alice", TypeItemPickup, 1, nil)
	require.NoError(t, err)

	fakeNow = fakeNow.Add(conflictWindow + time.Millisecond)
	_, err = r.SubmitAction("item-1", "bob", TypeItemPickup, 2, nil)
	require.NoError(t, err)

	res := r.Resolve("item-1")
	require.NotNil(t, res)
	require.NotNil(t, res.Winner)
	assert.Equal(t, "alice", res.Winner.PlayerID)
	require.Len(t, res.Losers, 1)
	assert.Equal(t, "bob", res.Losers[0].PlayerID)
}

func TestResolveServerTimestampPicksLowestTick(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	_, err := r.SubmitAction("mob-1", "alice", TypeCombatTarget, 10, nil)
	require.NoError(t, err)
	fakeNow = fakeNow.Add(conflictWindow + time.Millisecond)
	_, err = r.SubmitAction("mob-1", "bob", TypeCombatTarget, 5, nil)
	require.NoError(t, err)

	res := r.Resolve("mob-1")
	require.NotNil(t, res.Winner)
	assert.Equal(t, "bob", res.Winner.PlayerID)
}

func TestResolveAutoTriggersAtMaxPending(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	var lastErr error
	for i := 0; i < maxPending; i++ {
		fakeNow = fakeNow.Add(conflictWindow + time.Millisecond)
		player := string(rune('a' + i))
		_, lastErr = r.SubmitAction("item-1", player, TypeItemPickup, uint64(i), nil)
	}
	require.NoError(t, lastErr)
	assert.Equal(t, 0, r.PendingCount("item-1"))

	history := r.RecentResolutions()
	require.Len(t, history, 1)
}

func TestReclaimStaleLocksReleasesOldLock(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	_, err := r.SubmitAction("npc-1", "alice", TypeNPCRecruit, 1, nil)
	require.NoError(t, err)

	fakeNow = fakeNow.Add(staleMultiple*conflictWindow + time.Millisecond)
	reclaimed := r.ReclaimStaleLocks()
	assert.Equal(t, 1, reclaimed)

	_, err = r.SubmitAction("npc-1", "bob", TypeNPCRecruit, 2, nil)
	require.NoError(t, err)
}

func TestRecentResolutionsCapped(t *testing.T) {
	r := NewResolver()
	fakeNow := time.Now()
	r.nowFn = func() time.Time { return fakeNow }

	for i := 0; i < historySize+5; i++ {
		target := "item-x"
		fakeNow = fakeNow.Add(conflictWindow + time.Millisecond)
		_, err := r.SubmitAction(target, "alice", TypeItemPickup, uint64(i), nil)
		require.NoError(t, err)
		r.Resolve(target)
	}

	assert.Len(t, r.RecentResolutions(), historySize)
}
