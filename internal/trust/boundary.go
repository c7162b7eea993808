package trust

import "time"

// Spec §4.3 literal constants.
const (
	maxTeleportDistance = 50.0 // meters — hard reject above this
	maxSpeed            = 15.0 // m/s — hard reject above this
	perTickBudget       = 3.0 // meters at the reference 20 Hz tick (spec §4.3/§8)
	referenceTick       = 50 * time.Millisecond

	softClampLow  = 1.0 // x per-tick budget
	softClampHigh = 1.5 // x per-tick budget

	meleeRange  = 5.0
	rangedRange = 100.0

	attackCooldown = 500 * time.Millisecond

	minQuantity = 1
	maxQuantity = 999
	pickupRange = 5.0

	maxChatChars = 500
)

// Boundary is the Trust Boundary (C3): every client-authored intent passes
// through one of its Validate* methods before any other component sees it.
type Boundary struct {
	buckets *bucketRegistry
	ledger  *Ledger
}

// Config bundles the boundary's bucket rates and violation thresholds.
// server.New passes DefaultConfig(); internal/config's TrustBoundary
// section is not converted into a Config.
type Config struct {
	Rates      map[BucketKind]BucketRates
	Thresholds ViolationThresholds
}

func DefaultConfig() Config {
	return Config{
		Rates:      DefaultBucketRates(),
		Thresholds: DefaultViolationThresholds(),
	}
}

func New(cfg Config) *Boundary {
	return &Boundary{
		buckets: newBucketRegistry(cfg.Rates),
		ledger:  NewLedger(cfg.Thresholds),
	}
}

// Ledger exposes the violation ledger for the facade to wire kick/ban hooks.
func (b *Boundary) Ledger() *Ledger { return b.ledger }

// RemovePlayer clears all trust-boundary state for a disconnected player.
func (b *Boundary) RemovePlayer(player string) {
	b.buckets.RemovePlayer(player)
	b.ledger.RemovePlayer(player)
}

// record records a violation in the ledger. Rejections spec §4.3 calls out
// as "not counted" (soft clamps, lag-tolerant cooldown misses) never call it.
func (b *Boundary) record(player string, kind ViolationKind) Escalation {
	return b.ledger.Record(player, kind)
}

// --- Position -----------------------------------------------------------

// PositionResult is the outcome of ValidatePosition: either accepted
// (possibly with a soft-clamped coordinate) or rejected.
type PositionResult struct {
	Accepted   bool
	Corrected  Vec3 // valid only if Accepted
	Rejection  *Rejection
	Escalation Escalation
}

// ValidatePosition checks a position update per spec §4.3. deltaTime is the
// client-reported elapsed time since the previous accepted update.
func (b *Boundary) ValidatePosition(player string, oldPos, newPos Vec3, deltaTime time.Duration) PositionResult {
	if !b.buckets.Allow(player, BucketGeneral) {
		return PositionResult{Rejection: reject(KindRateLimit, "rate limit exceeded")}
	}

	dist := distance(oldPos, newPos)
	dtSeconds := deltaTime.Seconds()
	if dtSeconds <= 0 {
		dtSeconds = referenceTick.Seconds()
	}

	if dist > maxTeleportDistance {
		esc := b.record(player, KindTeleport)
		return PositionResult{Rejection: reject(KindTeleport, "teleport violation: distance %.2f exceeds %.2f", dist, maxTeleportDistance), Escalation: esc}
	}

	expected := perTickBudget * (dtSeconds / referenceTick.Seconds())
	if expected <= 0 {
		expected = perTickBudget
	}

	// The anomaly/clamp bands are evaluated before the raw speed cap: at
	// small dt the per-tick budget already implies an instantaneous speed
	// above maxSpeed, so a legitimate reference-tick update landing in the
	// clamp band (spec §8 scenario 2) must be accepted without ever
	// reaching the speed check below.
	switch {
	case dist > softClampHigh*expected:
		esc := b.record(player, KindMovementAnomaly)
		return PositionResult{Rejection: reject(KindMovementAnomaly, "movement anomaly: distance %.2f exceeds %.2f", dist, softClampHigh*expected), Escalation: esc}
	case dist > softClampLow*expected:
		// Soft correction: clamp to the expected budget along the same
		// direction. Not counted as a violation (spec §4.3).
		corrected := clampTowards(oldPos, newPos, expected)
		return PositionResult{Accepted: true, Corrected: corrected}
	}

	speed := dist / dtSeconds
	if speed > maxSpeed {
		esc := b.record(player, KindSpeedHack)
		return PositionResult{Rejection: reject(KindSpeedHack, "speed violation: %.2f m/s exceeds %.2f", speed, maxSpeed), Escalation: esc}
	}

	return PositionResult{Accepted: true, Corrected: newPos}
}

func clampTowards(from, to Vec3, maxDist float64) Vec3 {
	d := sub(to, from)
	l := length(d)
	if l <= maxDist || l == 0 {
		return to
	}
	scale := maxDist / l
	return Vec3{
		X: from.X + d.X*scale,
		Y: from.Y + d.Y*scale,
		Z: from.Z + d.Z*scale,
	}
}

// --- Combat ---------------------------------------------------------------

// CombatResult is the outcome of ValidateCombat.
type CombatResult struct {
	Accepted   bool
	Rejection  *Rejection
	Escalation Escalation
}

// ValidateCombat checks an attack intent per spec §4.3. attackerID and
// targetID are opaque comparable keys (e.g. entity ids as strings) used only
// for the self-target check.
func (b *Boundary) ValidateCombat(player string, attackerID, targetID string, attackerPos, targetPos Vec3, ranged bool) CombatResult {
	if !b.buckets.Allow(player, BucketAttack) {
		esc := b.record(player, KindRateLimit)
		return CombatResult{Rejection: reject(KindRateLimit, "attack rate limit exceeded"), Escalation: esc}
	}

	// Cooldown misses are lag-tolerant: not recorded as a violation.
	if b.buckets.OnCooldown(player, "attack") {
		return CombatResult{Rejection: reject(KindRateLimit, "attack on cooldown")}
	}

	if attackerID == targetID {
		esc := b.record(player, KindSelfTarget)
		return CombatResult{Rejection: reject(KindSelfTarget, "cannot target self"), Escalation: esc}
	}

	maxRange := meleeRange
	if ranged {
		maxRange = rangedRange
	}
	if distance(attackerPos, targetPos) > maxRange {
		esc := b.record(player, KindCombatRange)
		return CombatResult{Rejection: reject(KindCombatRange, "target out of range (%.2f > %.2f)", distance(attackerPos, targetPos), maxRange), Escalation: esc}
	}

	b.buckets.SetCooldown(player, "attack", attackCooldown)
	return CombatResult{Accepted: true}
}

// --- Inventory --------------------------------------------------------------

// InventoryAction enumerates the inventory intents spec §4.3 validates.
type InventoryAction string

const (
	InventoryPickup InventoryAction = "pickup"
	InventoryDrop   InventoryAction = "drop"
	InventoryUse    InventoryAction = "use"
)

// InventoryResult is the outcome of ValidateInventory.
type InventoryResult struct {
	Accepted   bool
	Rejection  *Rejection
	Escalation Escalation
}

// ValidateInventory checks an inventory intent per spec §4.3. playerPos and
// itemPos matter only for pickup (range check); itemID must be non-empty.
func (b *Boundary) ValidateInventory(player string, action InventoryAction, itemID string, quantity int, playerPos, itemPos Vec3) InventoryResult {
	if !b.buckets.Allow(player, BucketInventory) {
		esc := b.record(player, KindRateLimit)
		return InventoryResult{Rejection: reject(KindRateLimit, "inventory rate limit exceeded"), Escalation: esc}
	}

	if itemID == "" {
		esc := b.record(player, KindEmptyPayload)
		return InventoryResult{Rejection: reject(KindEmptyPayload, "empty item id"), Escalation: esc}
	}

	if quantity < minQuantity || quantity > maxQuantity {
		esc := b.record(player, KindInventoryQty)
		return InventoryResult{Rejection: reject(KindInventoryQty, "quantity %d out of range [%d,%d]", quantity, minQuantity, maxQuantity), Escalation: esc}
	}

	if action == InventoryPickup && distance(playerPos, itemPos) > pickupRange {
		esc := b.record(player, KindInventoryRange)
		return InventoryResult{Rejection: reject(KindInventoryRange, "item out of pickup range"), Escalation: esc}
	}

	return InventoryResult{Accepted: true}
}

// --- Chat -------------------------------------------------------------------

// ChatResult is the outcome of ValidateChat.
type ChatResult struct {
	Accepted   bool
	Rejection  *Rejection
	Escalation Escalation
}

// ValidateChat checks a chat message per spec §4.3.
func (b *Boundary) ValidateChat(player, message string) ChatResult {
	if !b.buckets.Allow(player, BucketChat) {
		esc := b.record(player, KindRateLimit)
		return ChatResult{Rejection: reject(KindRateLimit, "chat rate limit exceeded"), Escalation: esc}
	}
	if message == "" {
		esc := b.record(player, KindEmptyPayload)
		return ChatResult{Rejection: reject(KindEmptyPayload, "empty chat message"), Escalation: esc}
	}
	if len(message) > maxChatChars {
		esc := b.record(player, KindChatLength)
		return ChatResult{Rejection: reject(KindChatLength, "chat message exceeds %d chars", maxChatChars), Escalation: esc}
	}
	return ChatResult{Accepted: true}
}

// --- Trading / Building stubs ------------------------------------------------

// ValidateTrading is an accept-for-now stub (spec §9 open question c): it
// only enforces the general rate limit. Range/plausibility checks belong to
// the trading system, out of this core's scope (spec §1).
func (b *Boundary) ValidateTrading(player string) bool {
	return b.buckets.Allow(player, BucketGeneral)
}

// ValidateBuilding is an accept-for-now stub, symmetric with ValidateTrading.
func (b *Boundary) ValidateBuilding(player string) bool {
	return b.buckets.Allow(player, BucketGeneral)
}
