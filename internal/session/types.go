// Package session implements Session Recovery (C7): heartbeat tracking,
// disconnect preservation with delayed AI takeover, and latency-based
// degradation policy.
package session

import "time"

const (
	heartbeatTimeout = 15 * time.Second
	preserveExpiry   = 5 * time.Minute
	aiTakeoverDelay  = 3 * time.Second
	invulnerability  = 5 * time.Second

	degradeLatency1 = 200 * time.Millisecond // reduce rate, extend interp buffer
	degradeLatency2 = 500 * time.Millisecond // reduce sync scope, disable non-essential sync
	maxInterpBuffer = 500 * time.Millisecond
)

// Behavior is the AI control mode applied on takeover (spec §4.7).
type Behavior string

const (
	BehaviorDefensive Behavior = "defensive"
)

// heartbeatState tracks one client's liveness (spec §4.7).
type heartbeatState struct {
	lastReceipt      time.Time
	consecutiveMiss  int
	estimatedLatency time.Duration
	timedOut         bool
}

// PreservedSession is the frozen state stored on disconnect (spec §4.7).
type PreservedSession struct {
	PlayerID       string
	SaveData       any
	WorldSlice     any
	DisconnectedAt time.Time
	ExpiresAt      time.Time

	aiControlled      bool
	aiBehavior        Behavior
	aiTakeoverAt      time.Time
	invulnerableUntil time.Time
}

// DegradationPolicy is the derived sync adjustment for a latency sample
// (spec §4.7).
type DegradationPolicy struct {
	InterpBufferMs       int64
	ReduceUpdateRate     bool
	ReduceSyncScope      bool
	DisableNonEssential  bool
	PrepareForDisconnect bool
}
