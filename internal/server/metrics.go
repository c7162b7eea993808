package server

import (
	"github.com/openfrontier/authority/internal/core/event"
	"github.com/openfrontier/authority/internal/metrics"
)

// WireMetrics subscribes the A5 collectors to the facade's bus events. It is
// a pure observer on the same one-way sub-component-to-bus wiring wireHooks
// establishes: nothing here feeds back into a sub-component.
func (c *Context) WireMetrics() {
	c.OnActionRejected(func(e event.ActionRejected) {
		metrics.Violations.WithLabelValues(e.Kind).Inc()
	})
	c.OnPlayerShouldBeKicked(func(e event.PlayerShouldBeKicked) {
		metrics.Escalations.WithLabelValues("kick").Inc()
	})
	c.OnPlayerShouldBeBanned(func(e event.PlayerShouldBeBanned) {
		metrics.Escalations.WithLabelValues("ban").Inc()
	})
	c.OnClientDriftDetected(func(e event.ClientDriftDetected) {
		metrics.TickDrift.WithLabelValues(e.PlayerID).Set(float64(e.Drift))
	})
	c.OnClientRequiresResync(func(e event.ClientRequiresResync) {
		metrics.TickDrift.WithLabelValues(e.PlayerID).Set(float64(e.Drift))
	})
	c.OnSessionPreserved(func(e event.SessionPreserved) {
		metrics.PreservedSessions.Inc()
	})
	c.OnPlayerReconnected(func(e event.PlayerReconnected) {
		metrics.PreservedSessions.Dec()
	})
	c.OnPlayerSaved(func(e event.PlayerSaved) {
		metrics.SaveWrites.WithLabelValues("player", "ok").Inc()
	})
	c.OnWorldSaved(func(e event.WorldSaved) {
		metrics.SaveWrites.WithLabelValues("world", "ok").Inc()
	})
	c.OnSaveError(func(e event.SaveError) {
		kind := "player"
		if e.PlayerID == "" {
			kind = "world"
		}
		metrics.SaveWrites.WithLabelValues(kind, "error").Inc()
	})
}

// RecordConnection adjusts the connected-session gauge. Call from the
// composition root's connect/disconnect handlers.
func RecordConnection(delta float64) {
	metrics.ConnectedSessions.Add(delta)
}
