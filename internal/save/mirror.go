package save

import "sync"

// Mirror is the read-only client-side counterpart to Store (spec §4.8). It
// never writes to disk; it only tracks the last synced authoritative
// snapshot.
type Mirror struct {
	mu              sync.RWMutex
	cached          PlayerSave
	lastSyncVersion int64
	onSaveUpdated   func(player string, version int64)
}

func NewMirror() *Mirror {
	return &Mirror{}
}

func (m *Mirror) OnSaveUpdated(fn func(player string, version int64)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSaveUpdated = fn
}

// NeedsSync reports whether serverVersion is newer than the last synced
// version (spec §4.8).
func (m *Mirror) NeedsSync(serverVersion int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return serverVersion > m.lastSyncVersion
}

// ApplyServerSnapshot accepts only authoritative snapshots newer than the
// last synced version, replacing cached data and emitting OnSaveUpdated
// (spec §4.8).
func (m *Mirror) ApplyServerSnapshot(snap ClientSnapshot) bool {
	if !snap.IsAuthoritative {
		return false
	}
	m.mu.Lock()
	if snap.SaveVersion <= m.lastSyncVersion {
		m.mu.Unlock()
		return false
	}
	m.cached = snap.Payload
	m.lastSyncVersion = snap.SaveVersion
	cb := m.onSaveUpdated
	m.mu.Unlock()

	if cb != nil {
		cb(snap.PlayerID, snap.SaveVersion)
	}
	return true
}

// Cached returns the last applied snapshot's payload.
func (m *Mirror) Cached() PlayerSave {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cached
}
