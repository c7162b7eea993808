// Package save implements the Save Store (C8): single-writer persistence
// for player and world saves, an in-memory cache, backup rotation, and a
// read-only client-side mirror.
package save

import "time"

const (
	defaultMaxHealth = 100
	defaultLevel     = 1
	defaultMoney     = 100

	maxBackups = 10
)

// PlayerSave is the persistent record for one player (spec §3/§4.8).
type PlayerSave struct {
	PlayerID         string
	Version          int64
	CreatedAt        time.Time
	SavedAt          time.Time
	Health           int
	MaxHealth        int
	Level            int
	Experience       int64
	Money            int64
	Position         [3]float64
	Inventory        map[string]int // item id -> count
	Equipment        []string
	Skills           map[string]float64 // skill id -> value
	FactionRelations map[string]int     // faction id -> standing
	QuestProgress    map[string]int     // quest id -> progress
	LimbHealth       map[string]int     // limb name -> health
	Dirty            bool               `json:"-"`
}

// DefaultPlayerSave returns the default save spec §3/§4.8 names for a new
// player: health 100/100, level 1, money 100, zero position, empty
// collections.
func DefaultPlayerSave(player string) PlayerSave {
	return PlayerSave{
		PlayerID:         player,
		CreatedAt:        time.Now(),
		Health:           defaultMaxHealth,
		MaxHealth:        defaultMaxHealth,
		Level:            defaultLevel,
		Money:            defaultMoney,
		Inventory:        map[string]int{},
		Equipment:        []string{},
		Skills:           map[string]float64{},
		FactionRelations: map[string]int{},
		QuestProgress:    map[string]int{},
		LimbHealth:       map[string]int{},
	}
}

// WorldSave is the persistent record for one world/zone (spec §4.8).
type WorldSave struct {
	WorldID string
	Version int64
	SavedAt time.Time
	Payload map[string]any
	Dirty   bool `json:"-"`
}

// DefaultWorldSave returns an empty world save.
func DefaultWorldSave(world string) WorldSave {
	return WorldSave{WorldID: world, Payload: map[string]any{}}
}

// ClientSnapshot is what CreateClientSnapshot hands to a connecting client
// (spec §4.8).
type ClientSnapshot struct {
	PlayerID        string
	SaveVersion     int64
	Timestamp       time.Time
	Payload         PlayerSave
	IsAuthoritative bool
}
