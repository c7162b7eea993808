package server

import (
	"github.com/openfrontier/authority/internal/core/event"
	"github.com/openfrontier/authority/internal/tick"
)

// ProcessClientTick runs the drift check for player and raises the
// corresponding bus event for the Warn/RequiresResync outcomes
// (spec §4.6/§4.9).
func (c *Context) ProcessClientTick(player string, clientTick uint64) tick.DriftStatus {
	status := c.Scheduler.ProcessClientTick(player, clientTick)
	switch status {
	case tick.DriftWarn:
		event.Emit(c.Bus, event.ClientDriftDetected{
			PlayerID: player,
			Drift:    c.Scheduler.Drift.CurrentDrift(player),
		})
	case tick.DriftRequiresResync:
		event.Emit(c.Bus, event.ClientRequiresResync{
			PlayerID: player,
			Drift:    c.Scheduler.Drift.CurrentDrift(player),
		})
	}
	return status
}

// onMainTick is registered as the main clock's first callback: it swaps and
// dispatches the event bus, then announces tick completion (spec §9's
// EventDispatchSystem equivalent — see internal/core/event.Bus).
func (c *Context) onMainTick(snap tick.Snapshot) {
	c.Bus.SwapBuffers()
	c.Bus.DispatchAll()
	event.Emit(c.Bus, event.TickCompleted{TickID: snap.ID, ClockTag: string(snap.Clock)})
}

// onCombatTick is registered as the combat clock's callback.
func (c *Context) onCombatTick(snap tick.Snapshot) {
	event.Emit(c.Bus, event.TickCompleted{TickID: snap.ID, ClockTag: string(snap.Clock)})
}

// StartScheduler wires the tick callbacks and starts both clocks. Call once
// during composition, before Scheduler.Run.
func (c *Context) StartScheduler() {
	c.Scheduler.Main.RegisterCallback(c.onMainTick)
	c.Scheduler.Combat.RegisterCallback(c.onCombatTick)
}

// Cleanup runs the periodic sweeps spec §5 assigns independent timers to:
// heartbeat timeout detection, session-preservation expiry, and stale
// conflict-lock reclamation. Intended to be called on a 30s ticker by the
// composition root.
func (c *Context) Cleanup() {
	c.Heartbeat.Sweep()
	c.Recovery.Sweep()
	c.Conflict.ReclaimStaleLocks()
}

// SaveAllDirty runs C8's auto-save sweep. Intended to be called on a 60s
// ticker by the composition root.
func (c *Context) SaveAllDirty() {
	c.Saves.SaveAllDirty()
}
