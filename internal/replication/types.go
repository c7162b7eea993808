// Package replication implements the tiered State Replicator (C5): three
// fixed tiers (Transient, Event, Persistent) each with their own rate,
// window, and conflict-resolution policy, feeding outbound drainers that C6
// calls on each tick and C8 calls on its save timer.
package replication

import "time"

// Tier names one of the three replication classes (spec §4.5).
type Tier string

const (
	TierTransient  Tier = "transient"
	TierEvent      Tier = "event"
	TierPersistent Tier = "persistent"
)

// TierConfig is the static per-tier configuration table (spec §4.5).
type TierConfig struct {
	Rate        float64 // Hz
	Window      time.Duration
	Persist     bool
	MaxRetries  int
	RequiresAck bool
}

// tierConfigs is the literal spec table. Never mutated at runtime.
var tierConfigs = map[Tier]TierConfig{
	TierTransient:  {Rate: 20, Window: 200 * time.Millisecond, Persist: false, MaxRetries: 0, RequiresAck: false},
	TierEvent:      {Rate: 30, Window: 500 * time.Millisecond, Persist: false, MaxRetries: 3, RequiresAck: true},
	TierPersistent: {Rate: 1, Window: 5 * time.Second, Persist: true, MaxRetries: 5, RequiresAck: true},
}

// ConfigFor returns the static configuration for a tier.
func ConfigFor(tier Tier) TierConfig {
	return tierConfigs[tier]
}

// ConflictPolicy names the write-conflict rule applied by UpdatePersistent.
type ConflictPolicy string

const (
	PolicyServerWins    ConflictPolicy = "server_wins"
	PolicyLastWriteWins ConflictPolicy = "last_write_wins"
	PolicyReject        ConflictPolicy = "reject"
	PolicyMerge         ConflictPolicy = "merge"
)

// Property names a replicated field. The set is open (any string), but a
// default tier mapping exists for the properties spec §4.5 names.
type Property string

const (
	PropPosition         Property = "Position"
	PropRotation         Property = "Rotation"
	PropVelocity         Property = "Velocity"
	PropAnimation        Property = "Animation"
	PropCombatAction     Property = "CombatAction"
	PropDamageEvent      Property = "DamageEvent"
	PropItemPickup       Property = "ItemPickup"
	PropAbilityUse       Property = "AbilityUse"
	PropStatusEffect     Property = "StatusEffect"
	PropInventory        Property = "Inventory"
	PropEquipment        Property = "Equipment"
	PropHealth           Property = "Health"
	PropStats            Property = "Stats"
	PropSkills           Property = "Skills"
	PropFactionRelations Property = "FactionRelations"
	PropQuestProgress    Property = "QuestProgress"
	PropExperience       Property = "Experience"
	PropLevel            Property = "Level"
	PropBuildings        Property = "Buildings"
	PropMoney            Property = "Money"
	PropChatMessage      Property = "ChatMessage"
)

var defaultTierOf = map[Property]Tier{
	PropPosition:  TierTransient,
	PropRotation:  TierTransient,
	PropVelocity:  TierTransient,
	PropAnimation: TierTransient,

	PropCombatAction: TierEvent,
	PropDamageEvent:  TierEvent,
	PropItemPickup:   TierEvent,
	PropAbilityUse:   TierEvent,
	PropStatusEffect: TierEvent,

	PropInventory:        TierPersistent,
	PropEquipment:        TierPersistent,
	PropHealth:           TierPersistent,
	PropStats:            TierPersistent,
	PropSkills:           TierPersistent,
	PropFactionRelations: TierPersistent,
	PropQuestProgress:    TierPersistent,
	PropExperience:       TierPersistent,
	PropLevel:            TierPersistent,
	PropBuildings:        TierPersistent,
	PropMoney:            TierPersistent,
}

// DefaultTierFor resolves a property to its default tier. Unknown properties
// default to Transient (spec §4.5).
func DefaultTierFor(p Property) Tier {
	if t, ok := defaultTierOf[p]; ok {
		return t
	}
	return TierTransient
}

// transientEntry is one keyed transient value (spec §4.5 "overwrites the
// keyed entry, stamps version and dirty").
type transientEntry struct {
	Value          any
	Version        int64
	Source         string
	RequiresSync   bool
	LastUpdateTick uint64
}

// EventStatus is the lifecycle of a queued event (spec §4.5).
type EventStatus string

const (
	EventPending EventStatus = "pending"
	EventAcked   EventStatus = "acked"
	EventFailed  EventStatus = "failed"
)

// Event is a single entry in the Event tier's FIFO.
type Event struct {
	ID      string
	Entity  string
	Kind    Property
	Payload any
	Version int64
	Status  EventStatus
}

// persistentEntry is a keyed durable value with its conflict-relevant
// version (spec §4.5).
type persistentEntry struct {
	Value   any
	Version int64
	Source  string
	Dirty   bool
}

// retryTracker backs both Event and Persistent tier retry bookkeeping
// (spec §4.5 "Retries").
type retryTracker struct {
	CreatedAt   time.Time
	LastAttempt time.Time
	RetryCount  int
	MaxRetries  int
}
