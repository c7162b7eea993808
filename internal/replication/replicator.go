package replication

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// key identifies one (entity, property) slot.
type key struct {
	Entity   string
	Property Property
}

// Replicator is the State Replicator (C5). All three tiers share one
// instance; each tier's data lives in its own map, and a single mutex
// guards all of them.
type Replicator struct {
	mu sync.Mutex

	transient map[key]*transientEntry

	eventQueue   []Event
	eventByID    map[string]*Event
	eventRetries map[string]*retryTracker

	persistent        map[key]*persistentEntry
	persistentRetries map[key]*retryTracker
	mergers           map[Property]func(old, new any) any

	version int64
	nowFn   func() time.Time
}

func NewReplicator() *Replicator {
	return &Replicator{
		transient:         make(map[key]*transientEntry),
		eventByID:         make(map[string]*Event),
		eventRetries:      make(map[string]*retryTracker),
		persistent:        make(map[key]*persistentEntry),
		persistentRetries: make(map[key]*retryTracker),
		mergers:           make(map[Property]func(old, new any) any),
		nowFn:             time.Now,
	}
}

// RegisterMerger installs a per-property merge function for the Merge
// conflict policy. Properties with no registered merger fall back to
// "take new value" (spec §4.5).
func (r *Replicator) RegisterMerger(p Property, fn func(old, new any) any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mergers[p] = fn
}

func (r *Replicator) nextVersion() int64 {
	r.version++
	return r.version
}

// UpdateTransient overwrites the keyed entry, stamping version and marking
// it dirty for sync (spec §4.5).
func (r *Replicator) UpdateTransient(entity string, property Property, value any, source string, tick uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{entity, property}
	r.transient[k] = &transientEntry{
		Value:          value,
		Version:        r.nextVersion(),
		Source:         source,
		RequiresSync:   true,
		LastUpdateTick: tick,
	}
}

// GetDirtyTransient returns all entries with requires-sync=true. The caller
// is responsible for clearing flags via ClearTransientSync after sending.
func (r *Replicator) GetDirtyTransient() map[string]map[Property]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]map[Property]any)
	for k, e := range r.transient {
		if !e.RequiresSync {
			continue
		}
		if out[k.Entity] == nil {
			out[k.Entity] = make(map[Property]any)
		}
		out[k.Entity][k.Property] = e.Value
	}
	return out
}

// ClearTransientSync clears requires-sync for the given entity/property
// pairs, typically called after the dirty set has been sent.
func (r *Replicator) ClearTransientSync(entity string, properties []Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range properties {
		k := key{entity, p}
		if e, ok := r.transient[k]; ok {
			e.RequiresSync = false
		}
	}
}

// QueueEvent assigns an id and version, registers a retry tracker, and
// appends to the Event tier's FIFO (spec §4.5).
func (r *Replicator) QueueEvent(entity string, kind Property, payload any) Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	evt := Event{
		ID:      uuid.NewString(),
		Entity:  entity,
		Kind:    kind,
		Payload: payload,
		Version: r.nextVersion(),
		Status:  EventPending,
	}
	r.eventQueue = append(r.eventQueue, evt)
	r.eventByID[evt.ID] = &r.eventQueue[len(r.eventQueue)-1]
	now := r.nowFn()
	r.eventRetries[evt.ID] = &retryTracker{
		CreatedAt:   now,
		LastAttempt: now,
		MaxRetries:  ConfigFor(TierEvent).MaxRetries,
	}
	return evt
}

// GetPendingEvents dequeues up to max pending events from the FIFO.
func (r *Replicator) GetPendingEvents(max int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	remaining := r.eventQueue[:0]
	for _, evt := range r.eventQueue {
		if evt.Status == EventPending && len(out) < max {
			out = append(out, evt)
			continue
		}
		remaining = append(remaining, evt)
	}
	r.eventQueue = remaining
	r.reindexEvents()
	return out
}

func (r *Replicator) reindexEvents() {
	r.eventByID = make(map[string]*Event, len(r.eventQueue))
	for i := range r.eventQueue {
		r.eventByID[r.eventQueue[i].ID] = &r.eventQueue[i]
	}
}

// AckEvent marks an event acked and drops its retry tracker.
func (r *Replicator) AckEvent(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if evt, ok := r.eventByID[id]; ok {
		evt.Status = EventAcked
	}
	delete(r.eventRetries, id)
}

// UpdatePersistent applies a client write against the existing value using
// the given conflict policy (spec §4.5). Returns false if the write was
// rejected by the policy.
func (r *Replicator) UpdatePersistent(entity string, property Property, value any, source string, serverVersion int64, policy ConflictPolicy) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{entity, property}
	existing, has := r.persistent[k]

	var finalValue any = value
	if has {
		switch policy {
		case PolicyServerWins:
			if existing.Source == "server" && source != "server" {
				return false
			}
		case PolicyLastWriteWins:
			// always applies
		case PolicyReject:
			return false
		case PolicyMerge:
			merge := r.mergers[property]
			if merge == nil {
				finalValue = value
			} else {
				finalValue = merge(existing.Value, value)
			}
		}
	}

	r.persistent[k] = &persistentEntry{
		Value:   finalValue,
		Version: r.nextVersion(),
		Source:  source,
		Dirty:   true,
	}

	now := r.nowFn()
	r.persistentRetries[k] = &retryTracker{
		CreatedAt:   now,
		LastAttempt: now,
		MaxRetries:  ConfigFor(TierPersistent).MaxRetries,
	}
	return true
}

// GetDirtyPersistent returns the dirty set awaiting a save.
func (r *Replicator) GetDirtyPersistent() map[string]map[Property]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]map[Property]any)
	for k, e := range r.persistent {
		if !e.Dirty {
			continue
		}
		if out[k.Entity] == nil {
			out[k.Entity] = make(map[Property]any)
		}
		out[k.Entity][k.Property] = e.Value
	}
	return out
}

// MarkPersistentSaved clears the dirty flag for the given entity/property
// pairs after a successful save.
func (r *Replicator) MarkPersistentSaved(entity string, properties []Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range properties {
		k := key{entity, p}
		if e, ok := r.persistent[k]; ok {
			e.Dirty = false
		}
		delete(r.persistentRetries, k)
	}
}

// ApplyServerCorrection overwrites transient state regardless of local
// version and clears the dirty flag; used client-side on receipt of a
// server correction (spec §4.5).
func (r *Replicator) ApplyServerCorrection(entity string, property Property, serverValue any, serverVersion int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{entity, property}
	r.transient[k] = &transientEntry{
		Value:          serverValue,
		Version:        serverVersion,
		Source:         "server",
		RequiresSync:   false,
		LastUpdateTick: 0,
	}
}

// GetPendingEventRetries returns the ids of event trackers whose last attempt
// is over 1s old and have not exhausted their retry budget, and counts this
// call as a new attempt for each of them (spec §4.5).
func (r *Replicator) GetPendingEventRetries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowFn()
	var ids []string
	for id, tr := range r.eventRetries {
		if now.Sub(tr.LastAttempt) > time.Second && tr.RetryCount < tr.MaxRetries {
			tr.LastAttempt = now
			tr.RetryCount++
			ids = append(ids, id)
		}
	}
	return ids
}

// RemoveFailedEventReplications evicts event retry trackers that have
// exhausted their retry budget, returning their ids. The caller decides
// what failure means (spec §4.5: log, disconnect, resync).
func (r *Replicator) RemoveFailedEventReplications() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var failed []string
	for id, tr := range r.eventRetries {
		if tr.RetryCount >= tr.MaxRetries {
			failed = append(failed, id)
			delete(r.eventRetries, id)
			if evt, ok := r.eventByID[id]; ok {
				evt.Status = EventFailed
			}
		}
	}
	return failed
}

// RemoveEntity drops all tiered state for a destroyed entity.
func (r *Replicator) RemoveEntity(entity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.transient {
		if k.Entity == entity {
			delete(r.transient, k)
		}
	}
	for k := range r.persistent {
		if k.Entity == entity {
			delete(r.persistent, k)
			delete(r.persistentRetries, k)
		}
	}
}
