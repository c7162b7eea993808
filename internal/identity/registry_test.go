package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterReturnsSameIDForKnownHandle(t *testing.T) {
	r := NewRegistry()
	id1 := r.Register(0xdead, TypePlayer, "alice")
	id2 := r.Register(0xdead, TypePlayer, "alice")
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, r.Count())
}

func TestRegisterRemoteAdvancesAllocator(t *testing.T) {
	r := NewRegistry()
	farID := r.pool.Create()
	for i := 0; i < 5; i++ {
		farID = r.pool.Create()
	}

	err := r.RegisterRemote(farID+1000, TypeNPC, ServerOwner, Vec3{X: 10, Y: 0, Z: 10})
	require.NoError(t, err)

	localID := r.Register(0x1, TypePlayer, "bob")
	assert.NotEqual(t, farID+1000, localID)
}

func TestRemapEntityIdPreservesHandleAndOwnerIndex(t *testing.T) {
	r := NewRegistry()
	oldID := r.Register(0x42, TypePlayer, "carol")
	newID := oldID + 777

	require.NoError(t, r.RemapEntityId(oldID, newID))

	ent, ok := r.Get(newID)
	require.True(t, ok)
	assert.Equal(t, "carol", ent.OwnerID)
	assert.Equal(t, uintptr(0x42), ent.NativeHandle)

	resolved, ok := r.ByHandle(0x42)
	require.True(t, ok)
	assert.Equal(t, newID, resolved)

	owned := r.OwnedBy("carol")
	assert.Contains(t, owned, newID)
}

func TestTransferOwnershipRequiresOwnerOrServer(t *testing.T) {
	r := NewRegistry()
	id := r.Register(0x99, TypeItem, "dave")

	err := r.TransferOwnership(id, "eve", "mallory")
	assert.Error(t, err)

	err = r.TransferOwnership(id, "eve", "dave")
	assert.NoError(t, err)

	ent, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, "eve", ent.OwnerID)

	err = r.TransferOwnership(id, "frank", ServerOwner)
	assert.NoError(t, err)
}

func TestRemovePlayerDeletesAllOwnedEntities(t *testing.T) {
	r := NewRegistry()
	id1 := r.Register(0x1, TypePlayer, "gina")
	id2 := r.Register(0x2, TypeItem, "gina")

	removed := r.RemovePlayer("gina")
	assert.Len(t, removed, 2)
	_, ok1 := r.Get(id1)
	_, ok2 := r.Get(id2)
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestFindLocalEntityNearUsesDefaultDistance(t *testing.T) {
	r := NewRegistry()
	id := r.Register(0x1, TypePlayer, "hank")
	require.NoError(t, r.UpdateTransform(id, Vec3{X: 0, Y: 0, Z: 0}, Quaternion{}, 1))

	found, ok := r.FindLocalEntityNear(Vec3{X: 3, Y: 0, Z: 0}, "hank", 0)
	assert.True(t, ok)
	assert.Equal(t, id, found)

	_, ok = r.FindLocalEntityNear(Vec3{X: 10, Y: 0, Z: 0}, "hank", 0)
	assert.False(t, ok)
}

func TestTransferToServerReassignsWithoutDeleting(t *testing.T) {
	r := NewRegistry()
	id := r.Register(0x1, TypeVehicle, "irene")

	require.NoError(t, r.TransferToServer(id, "irene"))

	ent, ok := r.Get(id)
	require.True(t, ok)
	assert.Equal(t, ServerOwner, ent.OwnerID)
}
