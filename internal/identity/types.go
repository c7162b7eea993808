// Package identity implements the Identity & Ownership Registry (C1): the
// authoritative map from network entity id to owner, type, and last-known
// transform. It is the only component permitted to mutate entity records;
// everything else observes by value-copy or by a borrowed pointer for the
// duration of a single call.
package identity

import (
	"math"

	"github.com/openfrontier/authority/internal/core/ecs"
)

// EntityType enumerates the kinds of network entities the registry tracks.
type EntityType int

const (
	TypePlayer EntityType = iota
	TypeNPC
	TypeBuilding
	TypeItem
	TypeVehicle
)

func (t EntityType) String() string {
	switch t {
	case TypePlayer:
		return "Player"
	case TypeNPC:
		return "NPC"
	case TypeBuilding:
		return "Building"
	case TypeItem:
		return "Item"
	case TypeVehicle:
		return "Vehicle"
	default:
		return "Unknown"
	}
}

// ServerOwner is the sentinel owner id denoting server ownership.
const ServerOwner = "SERVER"

// Vec3 is a position in world space.
type Vec3 struct {
	X, Y, Z float64
}

// Quaternion is a rotation.
type Quaternion struct {
	X, Y, Z, W float64
}

// ZoneCoord is a coarse spatial bucket derived from position, used for
// interest management elsewhere in the core (replication, AOI-style lookups).
type ZoneCoord struct {
	CX, CZ int32
}

// zoneSize is the edge length, in world units, of one zone cell.
const zoneSize = 64.0

func zoneOf(pos Vec3) ZoneCoord {
	return ZoneCoord{
		CX: int32(math.Floor(pos.X / zoneSize)),
		CZ: int32(math.Floor(pos.Z / zoneSize)),
	}
}

// Entity is the registry's record for one network entity (spec §3 "Entity").
type Entity struct {
	ID             ecs.EntityID
	Type           EntityType
	OwnerID        string
	Position       Vec3
	Rotation       Quaternion
	NativeHandle   uintptr // 0 = unbound
	Zone           ZoneCoord
	LastUpdateTick uint64
	IsRemote       bool
	Equipment      []int32 // last-known equipment vector, opaque item ids
	AcquiredAtMs   int64   // when OwnerID was last set
}

// Ownership is the inverse-indexed record described in spec §3.
type Ownership struct {
	EntityID    ecs.EntityID
	OwnerID     string
	Type        EntityType
	AcquiredAtMs int64
}
