package server

import (
	"time"

	"github.com/openfrontier/authority/internal/replication"
)

// StateUpdate is the outbound packet GetStateUpdatesForClient assembles
// (spec §4.9).
type StateUpdate struct {
	Transient map[string]map[replication.Property]any
	Events    []replication.Event
	Timestamp time.Time
}

// GetStateUpdatesForClient drains C5's dirty transient set and pending
// events into one outbound packet (spec §4.9).
func (c *Context) GetStateUpdatesForClient(maxEvents int) StateUpdate {
	return StateUpdate{
		Transient: c.Replicate.GetDirtyTransient(),
		Events:    c.Replicate.GetPendingEvents(maxEvents),
		Timestamp: time.Now(),
	}
}

// ProcessAcknowledgment clears C5's retry tracker for an acknowledged event
// (spec §4.9).
func (c *Context) ProcessAcknowledgment(eventID string) {
	c.Replicate.AckEvent(eventID)
}
