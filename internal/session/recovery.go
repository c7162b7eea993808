package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Recovery owns the preserved-session table and delayed AI takeover
// scheduling (spec §4.7).
type Recovery struct {
	mu        sync.Mutex
	preserved map[string]*PreservedSession
	log       *zap.Logger
	nowFn     func() time.Time

	onAITakeover      func(player string, behavior Behavior)
	onPlayerReconnect func(player string, disconnectedFor time.Duration)
	onSessionPreserve func(player string, disconnectMs int64)

	scheduleAfter func(d time.Duration, fn func())
}

func NewRecovery(log *zap.Logger) *Recovery {
	r := &Recovery{
		preserved: make(map[string]*PreservedSession),
		log:       log,
		nowFn:     time.Now,
	}
	r.scheduleAfter = func(d time.Duration, fn func()) {
		time.AfterFunc(d, fn)
	}
	return r
}

func (r *Recovery) OnAITakeover(fn func(player string, behavior Behavior)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onAITakeover = fn
}

func (r *Recovery) OnPlayerReconnected(fn func(player string, disconnectedFor time.Duration)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPlayerReconnect = fn
}

func (r *Recovery) OnSessionPreserved(fn func(player string, disconnectMs int64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSessionPreserve = fn
}

// Preserve stores the player's session on disconnect and schedules a
// delayed AI takeover (spec §4.7).
func (r *Recovery) Preserve(player string, saveData, worldSlice any) {
	now := r.nowFn()
	ps := &PreservedSession{
		PlayerID:       player,
		SaveData:       saveData,
		WorldSlice:     worldSlice,
		DisconnectedAt: now,
		ExpiresAt:      now.Add(preserveExpiry),
	}

	r.mu.Lock()
	r.preserved[player] = ps
	cb := r.onSessionPreserve
	r.mu.Unlock()

	if cb != nil {
		cb(player, 0)
	}

	r.scheduleAfter(aiTakeoverDelay, func() { r.takeover(player) })
}

func (r *Recovery) takeover(player string) {
	r.mu.Lock()
	ps, ok := r.preserved[player]
	if !ok || r.nowFn().After(ps.ExpiresAt) {
		r.mu.Unlock()
		return
	}
	now := r.nowFn()
	ps.aiControlled = true
	ps.aiBehavior = BehaviorDefensive
	ps.aiTakeoverAt = now
	ps.invulnerableUntil = now.Add(invulnerability)
	cb := r.onAITakeover
	r.mu.Unlock()

	if cb != nil {
		cb(player, BehaviorDefensive)
	}
}

// IsInvulnerable reports whether player's AI-controlled entity is still
// within its invulnerability window. The transition happens on read
// (spec §4.7).
func (r *Recovery) IsInvulnerable(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.preserved[player]
	if !ok || !ps.aiControlled {
		return false
	}
	return r.nowFn().Before(ps.invulnerableUntil)
}

// RestoreSession returns the stored data for a reconnecting player if it is
// still within its expiry, removes AI control, and clears the preserved
// entry (spec §4.7). ok is false if there was nothing to restore.
func (r *Recovery) RestoreSession(player string) (data PreservedSession, ok bool) {
	r.mu.Lock()
	ps, found := r.preserved[player]
	if !found || r.nowFn().After(ps.ExpiresAt) {
		if found {
			delete(r.preserved, player)
		}
		r.mu.Unlock()
		return PreservedSession{}, false
	}
	delete(r.preserved, player)
	cb := r.onPlayerReconnect
	r.mu.Unlock()

	disconnectedFor := r.nowFn().Sub(ps.DisconnectedAt)
	if cb != nil {
		cb(player, disconnectedFor)
	}
	return *ps, true
}

// IsPreserved reports whether player currently has an unexpired preserved
// session.
func (r *Recovery) IsPreserved(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ps, ok := r.preserved[player]
	if !ok {
		return false
	}
	return !r.nowFn().After(ps.ExpiresAt)
}

// Sweep removes preserved sessions past their expiry. Intended to run on a
// periodic cleanup (spec §4.7 references a 30s cleanup cadence at C9).
func (r *Recovery) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFn()
	removed := 0
	for player, ps := range r.preserved {
		if now.After(ps.ExpiresAt) {
			delete(r.preserved, player)
			removed++
		}
	}
	return removed
}

// DegradationFor derives a DegradationPolicy from a latency sample
// (spec §4.7).
func DegradationFor(latency time.Duration) DegradationPolicy {
	var pol DegradationPolicy
	if latency > degradeLatency1 {
		buf := 2 * latency
		if buf > maxInterpBuffer {
			buf = maxInterpBuffer
		}
		pol.InterpBufferMs = buf.Milliseconds()
		pol.ReduceUpdateRate = true
	}
	if latency > degradeLatency2 {
		pol.ReduceSyncScope = true
		pol.DisableNonEssential = true
	}
	// Unhealthy: well past the hard degradation threshold, with no sign of
	// recovery. Mirrors spec §4.7's "if unhealthy" clause.
	if latency > 3*degradeLatency2 {
		pol.PrepareForDisconnect = true
	}
	return pol
}
