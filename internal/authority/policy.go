// Package authority implements the Authority Policy (C2): a static mapping
// from game-system tag to {Server, Client} authority, and the total
// decision functions built on top of it.
package authority

import "github.com/openfrontier/authority/internal/identity"

// System tags a game subsystem whose authority is fixed at compile time.
type System string

const (
	SystemPosition    System = "Position"
	SystemCombat      System = "Combat"
	SystemInventory   System = "Inventory"
	SystemAI          System = "AI"
	SystemTrading     System = "Trading"
	SystemBuilding    System = "Building"
	SystemQuests      System = "Quests"
	SystemFaction     System = "Faction"
	SystemWorldEvents System = "WorldEvents"
	SystemAnimation   System = "Animation"
)

// Authority is which party is entitled to commit a change.
type Authority int

const (
	Server Authority = iota
	Client
)

// table is the canonical compile-time assignment (spec §4.2). Unknown
// systems default to Server — CanModify and the IsXAuthoritative queries
// below never silently fall through to Client.
var table = map[System]Authority{
	SystemPosition:    Server,
	SystemCombat:      Server,
	SystemInventory:   Server,
	SystemAI:          Server,
	SystemTrading:     Server,
	SystemBuilding:    Server,
	SystemQuests:      Server,
	SystemFaction:     Server,
	SystemWorldEvents: Server,
	SystemAnimation:   Client,
}

func authorityOf(system System) Authority {
	a, ok := table[system]
	if !ok {
		return Server
	}
	return a
}

// IsServerAuthoritative is a total function: unknown systems are Server.
func IsServerAuthoritative(system System) bool {
	return authorityOf(system) == Server
}

// IsClientAuthoritative is a total function: unknown systems are Server
// (so this returns false for them), never Client by default.
func IsClientAuthoritative(system System) bool {
	return authorityOf(system) == Client
}

// CanModify reports whether player may submit a change to entity's system.
// SERVER may always modify. For server-authoritative systems this is true —
// the client may request, the server still validates via the Trust Boundary.
// For client-authoritative systems it is true only if player owns entity.
func CanModify(player string, entityOwner string, system System) bool {
	if player == identity.ServerOwner {
		return true
	}
	if IsServerAuthoritative(system) {
		return true
	}
	return player == entityOwner
}
