// Package tick implements the Tick Scheduler (C6): two fixed-step clocks
// (main and combat) that drive the game loop and track per-client drift
// against the server's authoritative tick id.
package tick

import "time"

const (
	MainRate   = 20 // Hz
	CombatRate = 30 // Hz

	MainInterval   = time.Second / MainRate
	CombatInterval = time.Second / CombatRate

	snapshotHistory = 100

	warnDrift   = 5
	resyncDrift = 10
	driftWindow = 10 // rolling sample count
)

// ClockName distinguishes the two fixed-step clocks (spec §4.6).
type ClockName string

const (
	ClockMain   ClockName = "main"
	ClockCombat ClockName = "combat"
)

// Snapshot is produced once per tick (spec §4.6).
type Snapshot struct {
	ID    uint64
	Clock ClockName
	At    time.Time
	Delta time.Duration
	State any // placeholder for a future world-state snapshot
}

// Callback is invoked once per tick. A panicking callback is caught and
// logged; it never stops the scheduler (spec §4.6).
type Callback func(Snapshot)

// DriftStatus is the outcome of ProcessClientTick (spec §4.6).
type DriftStatus int

const (
	DriftOK DriftStatus = iota
	DriftWarn
	DriftRequiresResync
)

// clientState is the per-client drift-tracking record.
type clientState struct {
	lastAckedTick uint64
	lastReceived  uint64
	currentDrift  int64
	samples       []int64 // rolling window, cap driftWindow
}
