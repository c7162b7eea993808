package server

import (
	"github.com/openfrontier/authority/internal/identity"
)

// RegisterPlayer creates the player's entity in the Identity Registry, loads
// their save, and stores the connected-player record (spec §4.9).
func (c *Context) RegisterPlayer(id, username string) {
	entityID := c.Identity.Register(0, identity.TypePlayer, id)
	c.Saves.LoadPlayerSave(id)
	c.Heartbeat.Register(id)

	c.playersMu.Lock()
	c.players[id] = &playerRecord{EntityID: entityID, Username: username}
	c.playersMu.Unlock()
}

// UnregisterPlayer persists the player's save if dirty, removes them from
// the Identity Registry, and drops their connected-player record. Recovery
// preservation is a separate call, driven by transport signalling
// (spec §4.9).
func (c *Context) UnregisterPlayer(id string) {
	data := c.Saves.LoadPlayerSave(id)
	if data.Dirty {
		c.Saves.SavePlayerData(id, data)
	}

	c.Identity.RemovePlayer(id)
	c.Heartbeat.Remove(id)
	c.Trust.RemovePlayer(id)

	c.playersMu.Lock()
	delete(c.players, id)
	c.playersMu.Unlock()
}

// PreserveSession stores the player's save and an opaque world slice for
// later reconnection, driven by a transport-level disconnect signal
// (spec §4.9).
func (c *Context) PreserveSession(id string, worldSlice any) {
	data := c.Saves.LoadPlayerSave(id)
	c.Recovery.Preserve(id, data, worldSlice)
}

// ReconnectOrRegister restores a preserved session if one is still within
// its expiry window, otherwise registers the player as a fresh login
// (spec §4.9). restored reports which path was taken.
func (c *Context) ReconnectOrRegister(id, username string) (restored bool) {
	if _, ok := c.Recovery.RestoreSession(id); ok {
		c.playersMu.Lock()
		c.players[id] = &playerRecord{EntityID: c.Identity.Register(0, identity.TypePlayer, id), Username: username}
		c.playersMu.Unlock()
		c.Heartbeat.Register(id)
		return true
	}
	c.RegisterPlayer(id, username)
	return false
}

// Connected reports whether id currently has a connected-player record.
func (c *Context) Connected(id string) bool {
	c.playersMu.RLock()
	defer c.playersMu.RUnlock()
	_, ok := c.players[id]
	return ok
}
