package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	gonet "github.com/openfrontier/authority/internal/net"
	"github.com/openfrontier/authority/internal/persist"
	"github.com/openfrontier/authority/internal/server"
	"github.com/openfrontier/authority/internal/trust"
)

// registerHandlers wires the inbound message types spec §6 names into the
// Server Context, turning each envelope's opaque payload into typed
// arguments for the corresponding C9 entry point.
func registerHandlers(d *gonet.Dispatcher, c *server.Context, accounts *persist.AccountRepo, journal *persist.JournalRepo, sessions *sessionRegistry, log *zap.Logger) {
	d.On(gonet.MsgLogin, func(sess *gonet.Session, env gonet.Envelope) {
		name, _ := env.Payload["name"].(string)
		password, _ := env.Payload["password"].(string)

		row, err := accounts.Load(context.Background(), name)
		if err != nil || row == nil || !accounts.ValidatePassword(row.PasswordHash, password) {
			sess.Send(gonet.Envelope{Type: gonet.MsgAuthentication, Payload: map[string]any{"ok": false}})
			return
		}
		if row.Banned {
			sess.Send(gonet.Envelope{Type: gonet.MsgAuthentication, Payload: map[string]any{"ok": false, "reason": "banned"}})
			return
		}

		sess.PlayerID = name
		sess.SetState(gonet.StateAuthenticated)
		restored := c.ReconnectOrRegister(name, name)
		sessions.Add(name, sess)
		sess.Send(gonet.Envelope{Type: gonet.MsgAuthentication, Payload: map[string]any{"ok": true, "restored": restored}})
	})

	d.On(gonet.MsgRegister, func(sess *gonet.Session, env gonet.Envelope) {
		name, _ := env.Payload["name"].(string)
		password, _ := env.Payload["password"].(string)

		if _, err := accounts.Create(context.Background(), name, password, sess.IP, sess.IP); err != nil {
			sess.Send(gonet.Envelope{Type: gonet.MsgAuthentication, Payload: map[string]any{"ok": false}})
			return
		}
		sess.Send(gonet.Envelope{Type: gonet.MsgAuthentication, Payload: map[string]any{"ok": true}})
	})

	d.On(gonet.MsgPosition, func(sess *gonet.Session, env gonet.Envelope) {
		entity, _ := env.Payload["entity"].(string)
		oldPos := vec3From(env.Payload, "old")
		newPos := vec3From(env.Payload, "new")
		dt := durationFrom(env.Payload, "dt_ms")

		c.ValidatePositionUpdate(sess.PlayerID, entity, oldPos, newPos, dt)
	})

	d.On(gonet.MsgCombat, func(sess *gonet.Session, env gonet.Envelope) {
		attackerEntity, _ := env.Payload["attacker_entity"].(string)
		attackerID, _ := env.Payload["attacker_id"].(string)
		targetID, _ := env.Payload["target_id"].(string)
		attackerPos := vec3From(env.Payload, "attacker_pos")
		targetPos := vec3From(env.Payload, "target_pos")
		ranged, _ := env.Payload["ranged"].(bool)

		c.ValidateCombatAction(sess.PlayerID, attackerEntity, attackerID, targetID, attackerPos, targetPos, ranged)
	})

	d.On(gonet.MsgInventory, func(sess *gonet.Session, env gonet.Envelope) {
		action, _ := env.Payload["action"].(string)
		itemID, _ := env.Payload["item_id"].(string)
		quantity := intFrom(env.Payload, "quantity")
		playerPos := vec3From(env.Payload, "player_pos")
		itemPos := vec3From(env.Payload, "item_pos")

		c.ValidateInventoryChange(sess.PlayerID, trust.InventoryAction(action), itemID, quantity, playerPos, itemPos)
	})

	d.On(gonet.MsgHealth, func(sess *gonet.Session, env gonet.Envelope) {
		value := int64(intFrom(env.Payload, "value"))
		c.UpdatePlayerStats(sess.PlayerID, "Health", value)
	})

	d.On(gonet.MsgHeartbeat, func(sess *gonet.Session, env gonet.Envelope) {
		clientTimeMs := int64(intFrom(env.Payload, "client_time_ms"))
		c.Heartbeat.RecordHeartbeat(sess.PlayerID, time.UnixMilli(clientTimeMs))

		clientTick := uint64(intFrom(env.Payload, "client_tick"))
		c.ProcessClientTick(sess.PlayerID, clientTick)
	})

	d.On(gonet.MsgAck, func(sess *gonet.Session, env gonet.Envelope) {
		eventID, _ := env.Payload["event_id"].(string)
		c.ProcessAcknowledgment(eventID)
	})

	d.On(gonet.MsgChat, func(sess *gonet.Session, env gonet.Envelope) {
		message, _ := env.Payload["message"].(string)
		c.ValidateChatMessage(sess.PlayerID, message)
	})

	for _, forwarded := range []gonet.MessageType{gonet.MsgTrade, gonet.MsgMarketplace} {
		d.On(forwarded, func(sess *gonet.Session, env gonet.Envelope) {
			if !c.ValidateTradeAction(sess.PlayerID) {
				return
			}
			log.Debug("forwarding to external collaborator", zap.String("type", string(env.Type)))
		})
	}

	d.On(gonet.MsgBuilding, func(sess *gonet.Session, env gonet.Envelope) {
		if !c.ValidateBuildAction(sess.PlayerID) {
			return
		}
		log.Debug("forwarding to external collaborator", zap.String("type", string(env.Type)))
	})
}

func vec3From(payload map[string]any, key string) trust.Vec3 {
	raw, ok := payload[key].(map[string]any)
	if !ok {
		return trust.Vec3{}
	}
	return trust.Vec3{
		X: floatFrom(raw, "x"),
		Y: floatFrom(raw, "y"),
		Z: floatFrom(raw, "z"),
	}
}

func floatFrom(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intFrom(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func durationFrom(m map[string]any, key string) time.Duration {
	return time.Duration(intFrom(m, key)) * time.Millisecond
}
