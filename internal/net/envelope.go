package net

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/openfrontier/authority/internal/replication"
	"github.com/openfrontier/authority/internal/trust"
)

// Concrete types carried inside Envelope.Payload's property bag. gob needs
// these named explicitly since they only ever appear behind an interface.
func init() {
	gob.Register(trust.Vec3{})
	gob.Register(map[string]string{})
	gob.Register(map[string]any{})
	gob.Register(map[string]map[replication.Property]any{})
	gob.Register([]replication.Event{})
	gob.Register(replication.Event{})
}

// MessageType tags an Envelope's purpose (spec §6's inbound/outbound
// message catalog).
type MessageType string

const (
	MsgLogin             MessageType = "login"
	MsgRegister          MessageType = "register"
	MsgAuthentication    MessageType = "authentication"
	MsgPosition          MessageType = "position"
	MsgCombat            MessageType = "combat"
	MsgInventory         MessageType = "inventory"
	MsgHealth            MessageType = "health"
	MsgSpawnRequest      MessageType = "spawn_request"
	MsgGroupSpawnRequest MessageType = "group_spawn_request"
	MsgGroupSpawnReady   MessageType = "group_spawn_ready"
	MsgMoveCommand       MessageType = "move_command"
	MsgAttackCommand     MessageType = "attack_command"
	MsgFollowCommand     MessageType = "follow_command"
	MsgHeartbeat         MessageType = "heartbeat"
	MsgAck               MessageType = "ack"

	// MsgStateUpdate is the outbound broadcast carrying a drained
	// GetStateUpdatesForClient packet (spec §4.9/§6).
	MsgStateUpdate MessageType = "state_update"

	// Types owned by external collaborators (spec §6). Their handlers run
	// them through C3's chat, trade or build check and forward the message
	// only on acceptance; no other core component sees them.
	MsgChat        MessageType = "chat"
	MsgTrade       MessageType = "trade"
	MsgMarketplace MessageType = "marketplace"
	MsgBuilding    MessageType = "building"
)

// OutboundStatePacket is the outbound state packet described in spec §6.
type OutboundStatePacket struct {
	ClientID         string
	Timestamp        int64
	TransientUpdates []TransientUpdate
	Events           []EventUpdate
}

// TransientUpdate is one entry of OutboundStatePacket.TransientUpdates.
type TransientUpdate struct {
	EntityID string
	Property string
	Value    any
	Version  uint64
}

// EventUpdate is one entry of OutboundStatePacket.Events.
type EventUpdate struct {
	EventID  string
	Type     string
	EntityID string
	Payload  map[string]any
}

// SaveSnapshotMessage is the separate save-snapshot message spec §6 names.
type SaveSnapshotMessage struct {
	PlayerID        string
	SaveVersion     int64
	Timestamp       int64
	Payload         map[string]any
	IsAuthoritative bool
}

// forwardedTypes are the types handed on to external collaborators once
// their C3 check accepts them.
var forwardedTypes = map[MessageType]bool{
	MsgChat:        true,
	MsgTrade:       true,
	MsgMarketplace: true,
	MsgBuilding:    true,
}

// IsForwarded reports whether typ is forwarded rather than core-routed.
func IsForwarded(typ MessageType) bool {
	return forwardedTypes[typ]
}

// Envelope is the wire message described in spec §6: a fixed header plus
// an opaque property bag. The bag stays untyped at the transport boundary
// per the design note that typed variants belong at the application
// layer — Dispatch's handlers are what give Payload meaning per MessageType.
type Envelope struct {
	Type         MessageType
	PlayerID     string
	SessionToken string
	Timestamp    int64
	Payload      map[string]any
}

// EncodeEnvelope gob-encodes env for the wire.
func EncodeEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeEnvelope decodes an envelope previously produced by EncodeEnvelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
