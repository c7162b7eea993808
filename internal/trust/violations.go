package trust

import (
	"sync"
	"time"
)

// ViolationThresholds configures the escalation ladder (spec §4.3/§8).
type ViolationThresholds struct {
	Warn int
	Kick int
	Ban  int
}

// DefaultViolationThresholds matches the spec's literal values.
func DefaultViolationThresholds() ViolationThresholds {
	return ViolationThresholds{Warn: 3, Kick: 10, Ban: 25}
}

// violationRecord mirrors spec §3 "Violation record".
type violationRecord struct {
	total    int
	perKind  map[ViolationKind]int
	lastAt   time.Time
	kickedAt int // total at which kick fired, 0 = not yet
	bannedAt int // total at which ban fired, 0 = not yet
}

// Escalation reports what crossed a threshold on this rejection, if anything.
type Escalation struct {
	Warned bool
	Kicked bool
	Banned bool
	Total  int
}

// Ledger tracks per-player, per-kind violation counts and fires escalation
// events exactly once per threshold crossing (spec §8 "escalation" property).
type Ledger struct {
	mu      sync.Mutex
	records map[string]*violationRecord
	thresh  ViolationThresholds
	nowFn   func() time.Time
}

func NewLedger(thresh ViolationThresholds) *Ledger {
	return &Ledger{
		records: make(map[string]*violationRecord),
		thresh:  thresh,
		nowFn:   time.Now,
	}
}

// Record increments player's counters for kind and returns what, if
// anything, crossed a threshold for the first time.
func (l *Ledger) Record(player string, kind ViolationKind) Escalation {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[player]
	if !ok {
		rec = &violationRecord{perKind: make(map[ViolationKind]int)}
		l.records[player] = rec
	}
	rec.total++
	rec.perKind[kind]++
	rec.lastAt = l.nowFn()

	esc := Escalation{Total: rec.total}
	if rec.total >= l.thresh.Warn {
		esc.Warned = true
	}
	if rec.total >= l.thresh.Kick && rec.kickedAt == 0 {
		rec.kickedAt = rec.total
		esc.Kicked = true
	}
	if rec.total >= l.thresh.Ban && rec.bannedAt == 0 {
		rec.bannedAt = rec.total
		esc.Banned = true
	}
	return esc
}

// Total returns player's current violation total.
func (l *Ledger) Total(player string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.records[player]
	if !ok {
		return 0
	}
	return rec.total
}

// Clear resets a player's violation record. An explicit operator action
// (spec §4.3): never triggered automatically by gameplay.
func (l *Ledger) Clear(player string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, player)
}

// RemovePlayer drops ledger state for a disconnected player.
func (l *Ledger) RemovePlayer(player string) {
	l.Clear(player)
}
