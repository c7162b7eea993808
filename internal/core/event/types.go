package event

import "github.com/openfrontier/authority/internal/core/ecs"

// Events carried on the Bus between tick N (emit) and tick N+1 (dispatch).
// These back the Server Context's cross-component hooks (spec §6's control
// surface): sub-components emit, the facade subscribes and re-exposes as
// operator callbacks — a one-way sub → facade wiring, never the reverse.

// ActionRejected fires whenever the Trust Boundary rejects a client intent.
type ActionRejected struct {
	PlayerID string
	Kind     string // validator kind: "position", "combat", "inventory", "chat"
	Reason   string
}

// ViolationDetected fires on every counted rejection, before any threshold check.
type ViolationDetected struct {
	PlayerID string
	Kind     string
	Total    int
}

// PlayerShouldBeKicked fires once when a player's violation total first reaches
// the kick threshold.
type PlayerShouldBeKicked struct {
	PlayerID string
	Total    int
}

// PlayerShouldBeBanned fires once when a player's violation total first reaches
// the ban threshold.
type PlayerShouldBeBanned struct {
	PlayerID string
	Total    int
}

// ClientDriftDetected fires when a client's tick drift exceeds the warn threshold.
type ClientDriftDetected struct {
	PlayerID string
	Drift    int64
}

// ClientRequiresResync fires when drift exceeds the resync threshold.
type ClientRequiresResync struct {
	PlayerID string
	Drift    int64
}

// HeartbeatTimeout fires once per timeout episode, cleared by the next heartbeat.
type HeartbeatTimeout struct {
	PlayerID string
}

// SessionPreserved fires when a disconnecting player's session is retained
// for possible reconnection.
type SessionPreserved struct {
	PlayerID     string
	DisconnectMs int64
}

// AITakeover fires when a preserved session's entity switches to AI control.
type AITakeover struct {
	PlayerID string
	Behavior string
}

// PlayerReconnected fires when a preserved session is restored.
type PlayerReconnected struct {
	PlayerID        string
	DisconnectedFor int64
}

// TickCompleted fires once per scheduler tick, carrying the tick snapshot id.
type TickCompleted struct {
	TickID   uint64
	ClockTag string // "main" or "combat"
}

// ResyncRequested fires whenever a client-facing resync packet is produced.
type ResyncRequested struct {
	PlayerID string
	Reason   string
}

// ReplicationFailed fires when a pending reliable replication exhausts its retries.
type ReplicationFailed struct {
	EventID string
	Tier    string
}

// SaveUpdated fires when the client mirror accepts a new authoritative snapshot.
type SaveUpdated struct {
	PlayerID    string
	SaveVersion int64
}

// PlayerSaved fires after a successful player save write.
type PlayerSaved struct {
	PlayerID    string
	SaveVersion int64
}

// WorldSaved fires after a successful world save write.
type WorldSaved struct {
	WorldID     string
	SaveVersion int64
}

// SaveError fires when a save write fails.
type SaveError struct {
	PlayerID string
	WorldID  string
	Err      string
}

// EntityDestroyed mirrors ecs.World cleanup for observers outside the ECS package.
type EntityDestroyed struct {
	EntityID ecs.EntityID
}
