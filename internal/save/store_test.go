package save

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlayerSaveReturnsDefaultWhenAbsent(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	data := s.LoadPlayerSave("alice")
	assert.Equal(t, defaultMaxHealth, data.Health)
	assert.Equal(t, defaultLevel, data.Level)
	assert.Equal(t, int64(defaultMoney), data.Money)
	assert.Empty(t, data.Inventory)
	assert.Empty(t, data.FactionRelations)
	assert.Empty(t, data.QuestProgress)
}

func TestSavePlayerDataUpdatesCacheAndEmitsEvent(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	var savedPlayer string
	var savedVersion int64
	s.OnPlayerSaved(func(player string, version int64) {
		savedPlayer = player
		savedVersion = version
	})

	data := DefaultPlayerSave("alice")
	data.Health = 80
	ok := s.SavePlayerData("alice", data)
	require.True(t, ok)
	assert.Equal(t, "alice", savedPlayer)
	assert.Equal(t, int64(1), savedVersion)

	reloaded := s.LoadPlayerSave("alice")
	assert.Equal(t, 80, reloaded.Health)
}

func TestSavePlayerDataCreatesBackupOfPreviousVersion(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	first := DefaultPlayerSave("alice")
	require.True(t, s.SavePlayerData("alice", first))

	second := DefaultPlayerSave("alice")
	second.Health = 50
	require.True(t, s.SavePlayerData("alice", second))

	_, err := os.Stat(s.playerBackupPath("alice", 1))
	assert.NoError(t, err)

	reloaded := s.LoadPlayerSave("alice")
	assert.Equal(t, 50, reloaded.Health)
}

func TestUpdatePlayerPersistentStateRejectsOutOfRangeHealth(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.LoadPlayerSave("alice")

	err := s.UpdatePlayerPersistentState("alice", "Health", 9999)
	require.Error(t, err)
	var rej *StatUpdateRejected
	require.ErrorAs(t, err, &rej)
}

func TestUpdatePlayerPersistentStateAcceptsValidHealth(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.LoadPlayerSave("alice")

	err := s.UpdatePlayerPersistentState("alice", "Health", 42)
	require.NoError(t, err)

	s.mu.RLock()
	cached := s.playerCache["alice"]
	s.mu.RUnlock()
	assert.Equal(t, 42, cached.Health)
	assert.True(t, cached.Dirty)
}

func TestUpdatePlayerPersistentStateRejectsNegativeMoney(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.LoadPlayerSave("alice")

	err := s.UpdatePlayerPersistentState("alice", "Money", -1)
	require.Error(t, err)
}

func TestSaveAllDirtySavesOnlyDirtyEntries(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	s.LoadPlayerSave("alice")
	s.LoadPlayerSave("bob")
	require.NoError(t, s.UpdatePlayerPersistentState("alice", "Money", 500))

	playersSaved, worldsSaved := s.SaveAllDirty()
	assert.Equal(t, 1, playersSaved)
	assert.Equal(t, 0, worldsSaved)
}

func TestCreateClientSnapshotIsAuthoritative(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	snap := s.CreateClientSnapshot("alice")
	assert.True(t, snap.IsAuthoritative)
	assert.Equal(t, "alice", snap.PlayerID)
}
