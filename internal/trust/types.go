// Package trust implements the Trust Boundary (C3): per-request plausibility
// validators, token-bucket rate limits, per-action cooldowns, and a
// violation-accounting ladder that escalates to kick/ban events. No
// client-authored message ever reaches the rest of the core without first
// passing through here (spec §5 invariant a).
package trust

import (
	"fmt"
	"math"
)

// ViolationKind distinguishes the validator that rejected a request, so
// callers can branch on structure instead of parsing Reason (spec §7).
type ViolationKind string

const (
	KindTeleport        ViolationKind = "teleport"
	KindSpeedHack       ViolationKind = "speed_hack"
	KindMovementAnomaly ViolationKind = "movement_anomaly"
	KindRateLimit       ViolationKind = "rate_limit"
	KindCombatRange     ViolationKind = "combat_range"
	KindSelfTarget      ViolationKind = "self_target"
	KindInventoryQty    ViolationKind = "inventory_quantity"
	KindInventoryRange  ViolationKind = "inventory_range"
	KindChatLength      ViolationKind = "chat_length"
	KindEmptyPayload    ViolationKind = "empty_payload"
)

// Rejection is the structured error returned by every validator. Reason is
// the human-readable string a client may display; Kind is what callers and
// the violation ledger branch on.
type Rejection struct {
	Kind   ViolationKind
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(kind ViolationKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Vec3 mirrors identity.Vec3 without importing identity, keeping the trust
// package a leaf with no dependency on the registry it validates against.
type Vec3 struct {
	X, Y, Z float64
}

func sub(a, b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func length(v Vec3) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func distance(a, b Vec3) float64 { return length(sub(a, b)) }
