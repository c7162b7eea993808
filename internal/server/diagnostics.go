package server

import (
	"github.com/openfrontier/authority/internal/core/event"
)

// wireDiagnostics subscribes C10 to the facade's bus events, the same
// one-way sub-component-to-bus wiring wireHooks and WireMetrics use: C10
// observes passively and never feeds back into a sub-component (spec §2,
// §4.10).
func (c *Context) wireDiagnostics() {
	c.OnViolationDetected(func(e event.ViolationDetected) {
		c.Diagnostics.Violation(e.PlayerID, e.Kind, e.Total)
	})
	c.OnClientDriftDetected(func(e event.ClientDriftDetected) {
		c.Diagnostics.Desync(e.PlayerID, e.Drift)
	})
	c.OnClientRequiresResync(func(e event.ClientRequiresResync) {
		c.Diagnostics.Desync(e.PlayerID, e.Drift)
	})
	c.OnHeartbeatTimeout(func(e event.HeartbeatTimeout) {
		c.Diagnostics.Connection(e.PlayerID, "heartbeat_timeout")
	})
	c.OnSessionPreserved(func(e event.SessionPreserved) {
		c.Diagnostics.Connection(e.PlayerID, "preserved")
	})
	c.OnAITakeover(func(e event.AITakeover) {
		c.Diagnostics.Connection(e.PlayerID, "ai_takeover:"+e.Behavior)
	})
	c.OnPlayerReconnected(func(e event.PlayerReconnected) {
		c.Diagnostics.Connection(e.PlayerID, "reconnected")
	})
	c.OnTickCompleted(func(e event.TickCompleted) {
		c.Diagnostics.Tick(e.TickID, e.ClockTag)
	})
}

// FlushDiagnostics writes C10's ring buffer to dir as JSONL, intended to be
// called on a 5s ticker by the composition root (spec §6).
func (c *Context) FlushDiagnostics(dir string) error {
	_, err := c.Diagnostics.Flush(dir)
	return err
}
