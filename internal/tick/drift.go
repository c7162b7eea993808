package tick

import "sync"

// DriftTracker maintains per-client drift state against the main clock
// (spec §4.6). Drift-detected and requires-resync are reported to the
// caller, who is expected to raise the corresponding event on the bus.
type DriftTracker struct {
	mu      sync.Mutex
	clients map[string]*clientState
}

func NewDriftTracker() *DriftTracker {
	return &DriftTracker{clients: make(map[string]*clientState)}
}

func (t *DriftTracker) stateFor(player string) *clientState {
	cs, ok := t.clients[player]
	if !ok {
		cs = &clientState{}
		t.clients[player] = cs
	}
	return cs
}

// ProcessClientTick updates player's drift state against serverTick and
// classifies the result per spec §4.6's thresholds.
func (t *DriftTracker) ProcessClientTick(player string, clientTick, serverTick uint64) DriftStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	cs := t.stateFor(player)
	cs.lastReceived = clientTick
	drift := int64(clientTick) - int64(serverTick)
	cs.currentDrift = drift

	cs.samples = append(cs.samples, drift)
	if len(cs.samples) > driftWindow {
		cs.samples = cs.samples[len(cs.samples)-driftWindow:]
	}

	abs := drift
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs <= warnDrift:
		return DriftOK
	case abs <= resyncDrift:
		return DriftWarn
	default:
		return DriftRequiresResync
	}
}

// Acknowledge records the last tick the client has acknowledged (used for
// reconciliation bookkeeping, spec §4.6).
func (t *DriftTracker) Acknowledge(player string, tick uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stateFor(player).lastAckedTick = tick
}

// CurrentDrift returns the player's most recently computed drift.
func (t *DriftTracker) CurrentDrift(player string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	cs, ok := t.clients[player]
	if !ok {
		return 0
	}
	return cs.currentDrift
}

// RemovePlayer drops drift-tracking state for a disconnected player.
func (t *DriftTracker) RemovePlayer(player string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, player)
}
