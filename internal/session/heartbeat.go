package session

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// HeartbeatTracker records client liveness and estimates one-way latency
// from reported client timestamps (spec §4.7).
type HeartbeatTracker struct {
	mu      sync.Mutex
	clients map[string]*heartbeatState
	log     *zap.Logger
	nowFn   func() time.Time

	onTimeout func(player string)
}

func NewHeartbeatTracker(log *zap.Logger) *HeartbeatTracker {
	return &HeartbeatTracker{
		clients: make(map[string]*heartbeatState),
		log:     log,
		nowFn:   time.Now,
	}
}

// OnHeartbeatTimeout registers the callback fired once per timeout.
func (h *HeartbeatTracker) OnHeartbeatTimeout(fn func(player string)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onTimeout = fn
}

// Register starts heartbeat tracking for a newly connected client.
func (h *HeartbeatTracker) Register(player string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[player] = &heartbeatState{lastReceipt: h.nowFn()}
}

// Remove stops tracking a disconnected client.
func (h *HeartbeatTracker) Remove(player string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, player)
}

// RecordHeartbeat updates last-receipt, zeroes consecutive misses, and
// estimates one-way latency as (serverNow - clientTime) / 2 (spec §4.7).
func (h *HeartbeatTracker) RecordHeartbeat(player string, clientTime time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hs, ok := h.clients[player]
	if !ok {
		hs = &heartbeatState{}
		h.clients[player] = hs
	}
	now := h.nowFn()
	hs.lastReceipt = now
	hs.consecutiveMiss = 0
	hs.timedOut = false
	if latency := now.Sub(clientTime) / 2; latency > 0 {
		hs.estimatedLatency = latency
	}
}

// EstimatedLatency returns the player's last estimated one-way latency.
func (h *HeartbeatTracker) EstimatedLatency(player string) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	hs, ok := h.clients[player]
	if !ok {
		return 0
	}
	return hs.estimatedLatency
}

// Sweep marks clients whose (now - lastReceipt) exceeds heartbeatTimeout as
// timed out, firing OnHeartbeatTimeout exactly once per timeout.
func (h *HeartbeatTracker) Sweep() []string {
	h.mu.Lock()
	now := h.nowFn()
	var timedOut []string
	for player, hs := range h.clients {
		if hs.timedOut {
			continue
		}
		if now.Sub(hs.lastReceipt) > heartbeatTimeout {
			hs.timedOut = true
			hs.consecutiveMiss++
			timedOut = append(timedOut, player)
		}
	}
	cb := h.onTimeout
	h.mu.Unlock()

	if cb != nil {
		for _, player := range timedOut {
			cb(player)
		}
	}
	return timedOut
}
