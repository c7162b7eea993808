package save

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyServerSnapshotRejectsNonAuthoritative(t *testing.T) {
	m := NewMirror()
	ok := m.ApplyServerSnapshot(ClientSnapshot{SaveVersion: 1, IsAuthoritative: false})
	assert.False(t, ok)
}

func TestApplyServerSnapshotRejectsStaleVersion(t *testing.T) {
	m := NewMirror()
	require.True(t, m.ApplyServerSnapshot(ClientSnapshot{SaveVersion: 5, IsAuthoritative: true}))
	assert.False(t, m.ApplyServerSnapshot(ClientSnapshot{SaveVersion: 5, IsAuthoritative: true}))
	assert.False(t, m.ApplyServerSnapshot(ClientSnapshot{SaveVersion: 3, IsAuthoritative: true}))
}

func TestApplyServerSnapshotEmitsOnSaveUpdated(t *testing.T) {
	m := NewMirror()
	var gotPlayer string
	var gotVersion int64
	m.OnSaveUpdated(func(player string, version int64) {
		gotPlayer = player
		gotVersion = version
	})

	ok := m.ApplyServerSnapshot(ClientSnapshot{PlayerID: "alice", SaveVersion: 2, IsAuthoritative: true})
	require.True(t, ok)
	assert.Equal(t, "alice", gotPlayer)
	assert.Equal(t, int64(2), gotVersion)
}

func TestNeedsSyncReflectsLastSyncedVersion(t *testing.T) {
	m := NewMirror()
	assert.True(t, m.NeedsSync(1))
	m.ApplyServerSnapshot(ClientSnapshot{SaveVersion: 3, IsAuthoritative: true})
	assert.False(t, m.NeedsSync(3))
	assert.True(t, m.NeedsSync(4))
}
