package identity

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/openfrontier/authority/internal/core/ecs"
)

// Registry maintains {network id -> Entity} and {native handle -> network id},
// plus an owner-id -> entity-set inverse index. All mutation goes through
// Registry; readers outside this package receive copies.
//
// Concurrency: shared-read, exclusive-write (spec §4.1).
type Registry struct {
	mu sync.RWMutex

	pool *ecs.EntityPool

	byID     map[ecs.EntityID]*Entity
	byHandle map[uintptr]ecs.EntityID
	byOwner  map[string]map[ecs.EntityID]struct{}

	nowFn func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		pool:     ecs.NewEntityPool(),
		byID:     make(map[ecs.EntityID]*Entity, 1024),
		byHandle: make(map[uintptr]ecs.EntityID, 1024),
		byOwner:  make(map[string]map[ecs.EntityID]struct{}, 64),
		nowFn:    time.Now,
	}
}

func (r *Registry) indexOwner(owner string, id ecs.EntityID) {
	set, ok := r.byOwner[owner]
	if !ok {
		set = make(map[ecs.EntityID]struct{}, 8)
		r.byOwner[owner] = set
	}
	set[id] = struct{}{}
}

func (r *Registry) unindexOwner(owner string, id ecs.EntityID) {
	if set, ok := r.byOwner[owner]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byOwner, owner)
		}
	}
}

// Register allocates a network id for handle if unknown, else returns the
// existing id for that handle. Inserts the entity record and owner index.
func (r *Registry) Register(handle uintptr, typ EntityType, owner string) ecs.EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle != 0 {
		if existing, ok := r.byHandle[handle]; ok {
			return existing
		}
	}

	id := r.pool.Create()
	ent := &Entity{
		ID:           id,
		Type:         typ,
		OwnerID:      owner,
		NativeHandle: handle,
		AcquiredAtMs: r.nowFn().UnixMilli(),
	}
	r.byID[id] = ent
	if handle != 0 {
		r.byHandle[handle] = id
	}
	r.indexOwner(owner, id)
	return id
}

// RegisterRemote inserts a record with no handle for an entity spawned from a
// network directive, and advances the local allocator past id so later local
// Register() calls never collide with it.
func (r *Registry) RegisterRemote(id ecs.EntityID, typ EntityType, owner string, pos Vec3) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("identity: remote entity %d already registered", id)
	}

	r.pool.AdvancePast(id.Index())
	r.byID[id] = &Entity{
		ID:           id,
		Type:         typ,
		OwnerID:      owner,
		Position:     pos,
		Zone:         zoneOf(pos),
		IsRemote:     true,
		AcquiredAtMs: r.nowFn().UnixMilli(),
	}
	r.indexOwner(owner, id)
	return nil
}

// SetGameObject binds a native handle to an existing remote entity, e.g. once
// a network-spawned entity has been instantiated locally.
func (r *Registry) SetGameObject(id ecs.EntityID, handle uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("identity: unknown entity %d", id)
	}
	if old := ent.NativeHandle; old != 0 {
		delete(r.byHandle, old)
	}
	ent.NativeHandle = handle
	if handle != 0 {
		r.byHandle[handle] = id
	}
	return nil
}

// RemapEntityId rewrites a locally allocated record's id to a server-assigned
// id, without disturbing its handle or state. Used when the server confirms
// an optimistically spawned entity.
func (r *Registry) RemapEntityId(oldID, newID ecs.EntityID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.byID[oldID]
	if !ok {
		return fmt.Errorf("identity: unknown entity %d", oldID)
	}
	if _, taken := r.byID[newID]; taken {
		return fmt.Errorf("identity: target id %d already in use", newID)
	}

	delete(r.byID, oldID)
	ent.ID = newID
	r.byID[newID] = ent

	if ent.NativeHandle != 0 {
		r.byHandle[ent.NativeHandle] = newID
	}

	if set, ok := r.byOwner[ent.OwnerID]; ok {
		delete(set, oldID)
		set[newID] = struct{}{}
	}

	r.pool.AdvancePast(newID.Index())
	return nil
}

// FindLocalEntityNear returns the first entity owned by owner within maxDist
// of pos. maxDist <= 0 uses the spec default of 5.0.
func (r *Registry) FindLocalEntityNear(pos Vec3, owner string, maxDist float64) (ecs.EntityID, bool) {
	if maxDist <= 0 {
		maxDist = 5.0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.byOwner[owner]
	if !ok {
		return 0, false
	}
	for id := range set {
		ent := r.byID[id]
		if ent == nil {
			continue
		}
		if distance(ent.Position, pos) <= maxDist {
			return id, true
		}
	}
	return 0, false
}

func distance(a, b Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// TransferOwnership succeeds only if requester is SERVER or the current owner.
func (r *Registry) TransferOwnership(id ecs.EntityID, newOwner, requester string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("identity: unknown entity %d", id)
	}
	if requester != ServerOwner && requester != ent.OwnerID {
		return fmt.Errorf("identity: %s may not transfer entity %d owned by %s", requester, id, ent.OwnerID)
	}

	r.unindexOwner(ent.OwnerID, id)
	ent.OwnerID = newOwner
	ent.AcquiredAtMs = r.nowFn().UnixMilli()
	r.indexOwner(newOwner, id)
	return nil
}

// OwnershipOf returns the ownership record for id, or false if unknown.
func (r *Registry) OwnershipOf(id ecs.EntityID) (Ownership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.byID[id]
	if !ok {
		return Ownership{}, false
	}
	return Ownership{
		EntityID:     id,
		OwnerID:      ent.OwnerID,
		Type:         ent.Type,
		AcquiredAtMs: ent.AcquiredAtMs,
	}, true
}

// TransferToServer reassigns an entity to SERVER ownership without deleting
// it. This resolves spec §9 open question (a): RemovePlayer is a hard
// removal; reassignment is this explicit, separate mutation.
func (r *Registry) TransferToServer(id ecs.EntityID, requester string) error {
	return r.TransferOwnership(id, ServerOwner, requester)
}

// RemovePlayer deletes every entity owned by owner from the registry.
// Policy: delete rather than reassign to SERVER (spec §4.1); callers that
// want reassignment use TransferToServer explicitly before disconnect.
func (r *Registry) RemovePlayer(owner string) []ecs.EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byOwner[owner]
	if !ok {
		return nil
	}
	removed := make([]ecs.EntityID, 0, len(set))
	for id := range set {
		if ent := r.byID[id]; ent != nil && ent.NativeHandle != 0 {
			delete(r.byHandle, ent.NativeHandle)
		}
		delete(r.byID, id)
		removed = append(removed, id)
	}
	delete(r.byOwner, owner)
	return removed
}

// Get returns a copy of the entity record, or false if unknown.
func (r *Registry) Get(id ecs.EntityID) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ent, ok := r.byID[id]
	if !ok {
		return Entity{}, false
	}
	return *ent, true
}

// ByHandle resolves a native handle to its network id.
func (r *Registry) ByHandle(handle uintptr) (ecs.EntityID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byHandle[handle]
	return id, ok
}

// OwnedBy returns the ids currently owned by owner.
func (r *Registry) OwnedBy(owner string) []ecs.EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byOwner[owner]
	out := make([]ecs.EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// UpdateTransform updates an entity's last known position/rotation/tick,
// re-deriving its zone. Called by the State Replicator on accepted position
// writes, never by clients directly.
func (r *Registry) UpdateTransform(id ecs.EntityID, pos Vec3, rot Quaternion, tick uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("identity: unknown entity %d", id)
	}
	ent.Position = pos
	ent.Rotation = rot
	ent.Zone = zoneOf(pos)
	ent.LastUpdateTick = tick
	return nil
}

// Count returns the number of live entities, for diagnostics.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
