package server

import (
	"time"

	"github.com/openfrontier/authority/internal/core/event"
	"github.com/openfrontier/authority/internal/session"
)

// wireHooks subscribes the facade to every sub-component's callback surface
// and re-emits each as a bus event. Wiring is strictly one-way:
// sub-components call back into the facade, the facade emits on the bus,
// operators subscribe via the On* methods below — never the reverse
// (spec §9 design note).
func (c *Context) wireHooks() {
	c.Heartbeat.OnHeartbeatTimeout(func(player string) {
		event.Emit(c.Bus, event.HeartbeatTimeout{PlayerID: player})
	})

	c.Recovery.OnSessionPreserved(func(player string, disconnectMs int64) {
		event.Emit(c.Bus, event.SessionPreserved{PlayerID: player, DisconnectMs: disconnectMs})
	})
	c.Recovery.OnAITakeover(func(player string, behavior session.Behavior) {
		event.Emit(c.Bus, event.AITakeover{PlayerID: player, Behavior: string(behavior)})
	})
	c.Recovery.OnPlayerReconnected(func(player string, disconnectedFor time.Duration) {
		event.Emit(c.Bus, event.PlayerReconnected{
			PlayerID:        player,
			DisconnectedFor: int64(disconnectedFor / time.Millisecond),
		})
	})

	c.Saves.OnPlayerSaved(func(player string, version int64) {
		event.Emit(c.Bus, event.PlayerSaved{PlayerID: player, SaveVersion: version})
	})
	c.Saves.OnWorldSaved(func(world string, version int64) {
		event.Emit(c.Bus, event.WorldSaved{WorldID: world, SaveVersion: version})
	})
	c.Saves.OnSaveError(func(player, world string, err error) {
		event.Emit(c.Bus, event.SaveError{PlayerID: player, WorldID: world, Err: err.Error()})
	})
}

// Hook registration surface: operators subscribe to facade-level events via
// these methods rather than reaching into sub-components directly.

func (c *Context) OnActionRejected(fn func(event.ActionRejected))       { event.Subscribe(c.Bus, fn) }
func (c *Context) OnViolationDetected(fn func(event.ViolationDetected)) { event.Subscribe(c.Bus, fn) }
func (c *Context) OnPlayerShouldBeKicked(fn func(event.PlayerShouldBeKicked)) {
	event.Subscribe(c.Bus, fn)
}
func (c *Context) OnPlayerShouldBeBanned(fn func(event.PlayerShouldBeBanned)) {
	event.Subscribe(c.Bus, fn)
}
func (c *Context) OnClientDriftDetected(fn func(event.ClientDriftDetected)) {
	event.Subscribe(c.Bus, fn)
}
func (c *Context) OnClientRequiresResync(fn func(event.ClientRequiresResync)) {
	event.Subscribe(c.Bus, fn)
}
func (c *Context) OnHeartbeatTimeout(fn func(event.HeartbeatTimeout)) { event.Subscribe(c.Bus, fn) }
func (c *Context) OnSessionPreserved(fn func(event.SessionPreserved)) { event.Subscribe(c.Bus, fn) }
func (c *Context) OnAITakeover(fn func(event.AITakeover))             { event.Subscribe(c.Bus, fn) }
func (c *Context) OnPlayerReconnected(fn func(event.PlayerReconnected)) {
	event.Subscribe(c.Bus, fn)
}
func (c *Context) OnTickCompleted(fn func(event.TickCompleted))     { event.Subscribe(c.Bus, fn) }
func (c *Context) OnResyncRequested(fn func(event.ResyncRequested)) { event.Subscribe(c.Bus, fn) }
func (c *Context) OnSaveUpdated(fn func(event.SaveUpdated))         { event.Subscribe(c.Bus, fn) }
func (c *Context) OnPlayerSaved(fn func(event.PlayerSaved))         { event.Subscribe(c.Bus, fn) }
func (c *Context) OnWorldSaved(fn func(event.WorldSaved))           { event.Subscribe(c.Bus, fn) }
func (c *Context) OnSaveError(fn func(event.SaveError))             { event.Subscribe(c.Bus, fn) }
