package trust

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BucketKind is one of the per-player token buckets spec §4.3 names.
type BucketKind string

const (
	BucketGeneral   BucketKind = "general"
	BucketAttack    BucketKind = "attack"
	BucketInventory BucketKind = "inventory"
	BucketChat      BucketKind = "chat"
)

// BucketRates holds the configured rate (events/sec) and burst for a bucket
// kind. Chat's 30/min is expressed as a per-second rate of 0.5 with a burst
// large enough to allow a short chat flurry.
type BucketRates struct {
	PerSecond float64
	Burst     int
}

// DefaultBucketRates returns the spec's literal rates (§4.3).
func DefaultBucketRates() map[BucketKind]BucketRates {
	return map[BucketKind]BucketRates{
		BucketGeneral:   {PerSecond: 60, Burst: 60},
		BucketAttack:    {PerSecond: 3, Burst: 3},
		BucketInventory: {PerSecond: 10, Burst: 10},
		BucketChat:      {PerSecond: 30.0 / 60.0, Burst: 30},
	}
}

// playerBuckets is the set of token-bucket limiters for one player.
type playerBuckets struct {
	limiters map[BucketKind]*rate.Limiter
}

// bucketRegistry owns one playerBuckets per connected player and the
// per-action cooldown timers (spec §4.3: attack cooldown >= 500ms).
type bucketRegistry struct {
	mu        sync.Mutex
	rates     map[BucketKind]BucketRates
	players   map[string]*playerBuckets
	cooldowns map[string]map[string]time.Time // player -> action -> ready-at
	nowFn     func() time.Time
}

func newBucketRegistry(rates map[BucketKind]BucketRates) *bucketRegistry {
	return &bucketRegistry{
		rates:     rates,
		players:   make(map[string]*playerBuckets),
		cooldowns: make(map[string]map[string]time.Time),
		nowFn:     time.Now,
	}
}

func (b *bucketRegistry) forPlayer(player string) *playerBuckets {
	b.mu.Lock()
	defer b.mu.Unlock()
	pb, ok := b.players[player]
	if !ok {
		pb = &playerBuckets{limiters: make(map[BucketKind]*rate.Limiter, len(b.rates))}
		for kind, r := range b.rates {
			pb.limiters[kind] = rate.NewLimiter(rate.Limit(r.PerSecond), r.Burst)
		}
		b.players[player] = pb
	}
	return pb
}

// Allow consumes one token from the named bucket for player.
func (b *bucketRegistry) Allow(player string, kind BucketKind) bool {
	pb := b.forPlayer(player)
	lim, ok := pb.limiters[kind]
	if !ok {
		return true
	}
	return lim.Allow()
}

// OnCooldown reports whether action is still cooling down for player.
func (b *bucketRegistry) OnCooldown(player, action string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	actions, ok := b.cooldowns[player]
	if !ok {
		return false
	}
	readyAt, ok := actions[action]
	if !ok {
		return false
	}
	return b.nowFn().Before(readyAt)
}

// SetCooldown starts a cooldown of d for player's action.
func (b *bucketRegistry) SetCooldown(player, action string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	actions, ok := b.cooldowns[player]
	if !ok {
		actions = make(map[string]time.Time)
		b.cooldowns[player] = actions
	}
	actions[action] = b.nowFn().Add(d)
}

// RemovePlayer drops all bucket/cooldown state for a disconnected player.
func (b *bucketRegistry) RemovePlayer(player string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.players, player)
	delete(b.cooldowns, player)
}
