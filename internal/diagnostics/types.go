// Package diagnostics implements the Diagnostics Logger (C10): a
// fixed-capacity ring buffer of structured events, per-player aggregates,
// capped state snapshots with diffing, and JSONL export for replay.
package diagnostics

import "time"

const (
	ringCapacity      = 10000
	snapshotCapacity  = 100
	rotationSizeBytes = 100 * 1024 * 1024
)

// EventType distinguishes the structured writers spec §4.10 names.
type EventType string

const (
	EventTick       EventType = "tick"
	EventPosition   EventType = "position"
	EventCombat     EventType = "combat"
	EventConnection EventType = "connection"
	EventViolation  EventType = "violation"
	EventDesync     EventType = "desync"
)

// Event is one ring-buffer entry (spec §4.10).
type Event struct {
	ID         uint64
	Type       EventType
	PlayerID   string
	Details    string
	Payload    map[string]any
	Timestamp  time.Time
	ServerTick uint64
}

// StateSnapshot is a point-in-time capture keyed by tick, used for
// CompareSnapshots (spec §4.10).
type StateSnapshot struct {
	Tick      uint64
	Timestamp time.Time
	Entities  map[string]EntityState
}

// EntityState is the minimal per-entity state captured in a snapshot.
type EntityState struct {
	Position [3]float64
	Health   int
}

// SnapshotDiff is the result of comparing two state snapshots (spec §4.10).
type SnapshotDiff struct {
	TickA, TickB  uint64
	OnlyInA       []string
	OnlyInB       []string
	PositionDelta map[string]float64
	HealthDelta   map[string]int
}
