package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTransientOverwritesAndMarksDirty(t *testing.T) {
	r := NewReplicator()
	r.UpdateTransient("e1", PropPosition, 1.0, "client", 10)
	r.UpdateTransient("e1", PropPosition, 2.0, "client", 11)

	dirty := r.GetDirtyTransient()
	require.Contains(t, dirty, "e1")
	assert.Equal(t, 2.0, dirty["e1"][PropPosition])
}

func TestClearTransientSyncClearsFlag(t *testing.T) {
	r := NewReplicator()
	r.UpdateTransient("e1", PropPosition, 1.0, "client", 1)
	r.ClearTransientSync("e1", []Property{PropPosition})

	dirty := r.GetDirtyTransient()
	assert.NotContains(t, dirty, "e1")
}

func TestQueueEventAssignsIDAndVersion(t *testing.T) {
	r := NewReplicator()
	evt := r.QueueEvent("e1", PropCombatAction, "swing")
	assert.NotEmpty(t, evt.ID)
	assert.Equal(t, EventPending, evt.Status)

	pending := r.GetPendingEvents(10)
	require.Len(t, pending, 1)
	assert.Equal(t, evt.ID, pending[0].ID)
}

func TestGetPendingEventsRespectsMax(t *testing.T) {
	r := NewReplicator()
	r.QueueEvent("e1", PropDamageEvent, 1)
	r.QueueEvent("e1", PropDamageEvent, 2)
	r.QueueEvent("e1", PropDamageEvent, 3)

	first := r.GetPendingEvents(2)
	require.Len(t, first, 2)

	second := r.GetPendingEvents(2)
	require.Len(t, second, 1)
}

func TestUpdatePersistentServerWinsRejectsClientOverServer(t *testing.T) {
	r := NewReplicator()
	ok := r.UpdatePersistent("p1", PropHealth, 100, "server", 1, PolicyServerWins)
	require.True(t, ok)

	ok = r.UpdatePersistent("p1", PropHealth, 50, "client", 2, PolicyServerWins)
	assert.False(t, ok)

	dirty := r.GetDirtyPersistent()
	assert.Equal(t, 100, dirty["p1"][PropHealth])
}

func TestUpdatePersistentLastWriteWinsAlwaysApplies(t *testing.T) {
	r := NewReplicator()
	r.UpdatePersistent("p1", PropMoney, 100, "server", 1, PolicyLastWriteWins)
	ok := r.UpdatePersistent("p1", PropMoney, 50, "client", 2, PolicyLastWriteWins)
	require.True(t, ok)

	dirty := r.GetDirtyPersistent()
	assert.Equal(t, 50, dirty["p1"][PropMoney])
}

func TestUpdatePersistentRejectPolicyRejectsOnAnyConflict(t *testing.T) {
	r := NewReplicator()
	r.UpdatePersistent("p1", PropInventory, []string{"sword"}, "client", 1, PolicyReject)
	ok := r.UpdatePersistent("p1", PropInventory, []string{"shield"}, "client", 2, PolicyReject)
	assert.False(t, ok)
}

func TestUpdatePersistentMergeDelegatesToRegisteredMerger(t *testing.T) {
	r := NewReplicator()
	r.RegisterMerger(PropInventory, func(old, new any) any {
		oldList := old.([]string)
		newItem := new.([]string)
		return append(append([]string{}, oldList...), newItem...)
	})
	r.UpdatePersistent("p1", PropInventory, []string{"sword"}, "client", 1, PolicyMerge)
	r.UpdatePersistent("p1", PropInventory, []string{"shield"}, "client", 2, PolicyMerge)

	dirty := r.GetDirtyPersistent()
	assert.Equal(t, []string{"sword", "shield"}, dirty["p1"][PropInventory])
}

func TestUpdatePersistentMergeWithoutMergerTakesNewValue(t *testing.T) {
	r := NewReplicator()
	r.UpdatePersistent("p1", PropSkills, "old", "client", 1, PolicyMerge)
	r.UpdatePersistent("p1", PropSkills, "new", "client", 2, PolicyMerge)

	dirty := r.GetDirtyPersistent()
	assert.Equal(t, "new", dirty["p1"][PropSkills])
}

func TestMarkPersistentSavedClearsDirty(t *testing.T) {
	r := NewReplicator()
	r.UpdatePersistent("p1", PropHealth, 100, "server", 1, PolicyServerWins)
	r.MarkPersistentSaved("p1", []Property{PropHealth})

	dirty := r.GetDirtyPersistent()
	assert.NotContains(t, dirty, "p1")
}

func TestApplyServerCorrectionOverwritesRegardlessOfVersion(t *testing.T) {
	r := NewReplicator()
	r.UpdateTransient("e1", PropPosition, 5.0, "client", 1)
	r.ApplyServerCorrection("e1", PropPosition, 1.0, 999)

	dirty := r.GetDirtyTransient()
	assert.NotContains(t, dirty, "e1") // correction clears requires-sync
}

func TestDefaultTierForKnownAndUnknownProperties(t *testing.T) {
	assert.Equal(t, TierTransient, DefaultTierFor(PropPosition))
	assert.Equal(t, TierEvent, DefaultTierFor(PropCombatAction))
	assert.Equal(t, TierPersistent, DefaultTierFor(PropInventory))
	assert.Equal(t, TierTransient, DefaultTierFor(Property("Unknown")))
}

func TestRemoveEntityDropsAllTiers(t *testing.T) {
	r := NewReplicator()
	r.UpdateTransient("e1", PropPosition, 1.0, "client", 1)
	r.UpdatePersistent("e1", PropHealth, 100, "server", 1, PolicyServerWins)

	r.RemoveEntity("e1")

	assert.NotContains(t, r.GetDirtyTransient(), "e1")
	assert.NotContains(t, r.GetDirtyPersistent(), "e1")
}
