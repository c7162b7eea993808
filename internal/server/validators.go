package server

import (
	"time"

	"github.com/openfrontier/authority/internal/core/event"
	"github.com/openfrontier/authority/internal/replication"
	"github.com/openfrontier/authority/internal/trust"
)

// emitEscalation turns a trust.Escalation into the bus events C9's
// subscribers react to (spec §4.3's escalation ladder surfaced at C9).
func (c *Context) emitEscalation(player string, kind trust.ViolationKind, esc trust.Escalation) {
	if esc.Total == 0 {
		return
	}
	event.Emit(c.Bus, event.ViolationDetected{PlayerID: player, Kind: string(kind), Total: esc.Total})
	if esc.Kicked {
		event.Emit(c.Bus, event.PlayerShouldBeKicked{PlayerID: player, Total: esc.Total})
	}
	if esc.Banned {
		event.Emit(c.Bus, event.PlayerShouldBeBanned{PlayerID: player, Total: esc.Total})
	}
}

// ValidatePositionUpdate runs the C3 position check and, on acceptance,
// updates C5's transient Position slot (spec §4.9).
func (c *Context) ValidatePositionUpdate(player, entity string, oldPos, newPos trust.Vec3, deltaTime time.Duration) (corrected trust.Vec3, ok bool) {
	res := c.Trust.ValidatePosition(player, oldPos, newPos, deltaTime)
	if !res.Accepted {
		event.Emit(c.Bus, event.ActionRejected{PlayerID: player, Kind: string(res.Rejection.Kind), Reason: res.Rejection.Reason})
		c.emitEscalation(player, res.Rejection.Kind, res.Escalation)
		return trust.Vec3{}, false
	}
	c.Replicate.UpdateTransient(entity, replication.PropPosition, res.Corrected, player, 0)
	c.Diagnostics.Position(player, c.Scheduler.Main.CurrentTick(), map[string]any{
		"x": res.Corrected.X, "y": res.Corrected.Y, "z": res.Corrected.Z,
	})
	return res.Corrected, true
}

// ValidateCombatAction runs the C3 combat check and, on acceptance, queues a
// CombatAction event in C5 (spec §4.9).
func (c *Context) ValidateCombatAction(player, attackerEntity, attackerID, targetID string, attackerPos, targetPos trust.Vec3, ranged bool) bool {
	res := c.Trust.ValidateCombat(player, attackerID, targetID, attackerPos, targetPos, ranged)
	if !res.Accepted {
		event.Emit(c.Bus, event.ActionRejected{PlayerID: player, Kind: string(res.Rejection.Kind), Reason: res.Rejection.Reason})
		c.emitEscalation(player, res.Rejection.Kind, res.Escalation)
		return false
	}
	c.Replicate.QueueEvent(attackerEntity, replication.PropCombatAction, map[string]string{"target": targetID})
	c.Diagnostics.Combat(player, c.Scheduler.Combat.CurrentTick(), map[string]any{
		"attacker": attackerID, "target": targetID, "ranged": ranged,
	})
	return true
}

// ValidateInventoryChange runs the C3 inventory check and, on acceptance,
// mutates the player's save-backed inventory, marks it dirty, updates C5's
// persistent Inventory slot, and queues an InventoryChange event
// (spec §4.9).
func (c *Context) ValidateInventoryChange(player string, action trust.InventoryAction, itemID string, quantity int, playerPos, itemPos trust.Vec3) bool {
	res := c.Trust.ValidateInventory(player, action, itemID, quantity, playerPos, itemPos)
	if !res.Accepted {
		event.Emit(c.Bus, event.ActionRejected{PlayerID: player, Kind: string(res.Rejection.Kind), Reason: res.Rejection.Reason})
		c.emitEscalation(player, res.Rejection.Kind, res.Escalation)
		return false
	}

	data := c.Saves.LoadPlayerSave(player)
	if data.Inventory == nil {
		data.Inventory = map[string]int{}
	}
	switch action {
	case trust.InventoryPickup:
		data.Inventory[itemID] += quantity
	case trust.InventoryDrop, trust.InventoryUse:
		remaining := data.Inventory[itemID] - quantity
		if remaining > 0 {
			data.Inventory[itemID] = remaining
		} else {
			delete(data.Inventory, itemID)
		}
	}
	data.Dirty = true
	c.Saves.UpdateCache(player, data)

	c.Replicate.UpdatePersistent(player, replication.PropInventory, data.Inventory, "server", 0, replication.PolicyServerWins)
	c.Replicate.QueueEvent(player, replication.Property("InventoryChange"), map[string]any{"item": itemID, "action": action, "qty": quantity})
	return true
}

// UpdatePlayerStats delegates to C8's validation and, on success, updates
// C5's persistent slot for the stat (spec §4.9).
func (c *Context) UpdatePlayerStats(player, stat string, value int64) bool {
	if err := c.Saves.UpdatePlayerPersistentState(player, stat, value); err != nil {
		return false
	}
	c.Replicate.UpdatePersistent(player, replication.Property(stat), value, "server", 0, replication.PolicyServerWins)
	return true
}

// ValidateChatMessage runs the C3 chat check and, on acceptance, queues a
// ChatMessage event in C5 so it can be broadcast to other clients
// (spec §4.3/§4.9).
func (c *Context) ValidateChatMessage(player, message string) bool {
	res := c.Trust.ValidateChat(player, message)
	if !res.Accepted {
		event.Emit(c.Bus, event.ActionRejected{PlayerID: player, Kind: string(res.Rejection.Kind), Reason: res.Rejection.Reason})
		c.emitEscalation(player, res.Rejection.Kind, res.Escalation)
		return false
	}
	c.Replicate.QueueEvent(player, replication.PropChatMessage, map[string]string{"message": message})
	return true
}

// ValidateTradeAction runs C3's accept-for-now rate-limit stub on a trade
// or marketplace intent (spec §9 open question c) before it is handed off
// to the out-of-scope trading system.
func (c *Context) ValidateTradeAction(player string) bool {
	return c.Trust.ValidateTrading(player)
}

// ValidateBuildAction runs C3's accept-for-now rate-limit stub on a
// building intent before it is handed off to the out-of-scope building
// system.
func (c *Context) ValidateBuildAction(player string) bool {
	return c.Trust.ValidateBuilding(player)
}

