package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Store is the Save Store (C8). Writes are serialized by a single-writer
// semaphore (spec §5: "C8's write path is single-writer"); reads hit the
// in-memory cache first.
type Store struct {
	baseDir string
	log     *zap.Logger
	nowFn   func() time.Time

	writeSem chan struct{}
	version  int64 // atomic, globally monotonic across players and worlds

	mu          sync.RWMutex
	playerCache map[string]*PlayerSave
	worldCache  map[string]*WorldSave

	onPlayerSaved func(player string, version int64)
	onWorldSaved  func(world string, version int64)
	onSaveError   func(player, world string, err error)
}

func NewStore(baseDir string, log *zap.Logger) *Store {
	return &Store{
		baseDir:     baseDir,
		log:         log,
		nowFn:       time.Now,
		writeSem:    make(chan struct{}, 1),
		playerCache: make(map[string]*PlayerSave),
		worldCache:  make(map[string]*WorldSave),
	}
}

func (s *Store) OnPlayerSaved(fn func(player string, version int64)) { s.onPlayerSaved = fn }
func (s *Store) OnWorldSaved(fn func(world string, version int64))   { s.onWorldSaved = fn }
func (s *Store) OnSaveError(fn func(player, world string, err error)) { s.onSaveError = fn }

func (s *Store) nextVersion() int64 { return atomic.AddInt64(&s.version, 1) }

func (s *Store) playerPath(player string) string {
	return filepath.Join(s.baseDir, "players", player+".json")
}
func (s *Store) playerBackupPath(player string, version int64) string {
	return filepath.Join(s.baseDir, "players", "backups", fmt.Sprintf("%s.v%d.bak", player, version))
}
func (s *Store) worldPath(world string) string {
	return filepath.Join(s.baseDir, "worlds", world+".json")
}
func (s *Store) worldBackupPath(world string, version int64) string {
	return filepath.Join(s.baseDir, "worlds", "backups", fmt.Sprintf("%s.v%d.bak", world, version))
}

// SavePlayerData writes data for player, following spec §4.8's write path:
// acquire the semaphore, assign version, timestamp, backup the existing
// file, write the new one, update the cache, emit OnPlayerSaved. The
// semaphore is always released.
func (s *Store) SavePlayerData(player string, data PlayerSave) bool {
	s.writeSem <- struct{}{}
	defer func() { <-s.writeSem }()

	data.PlayerID = player
	data.Version = s.nextVersion()
	data.SavedAt = s.nowFn()

	path := s.playerPath(player)
	if err := backupExisting(path, s.playerBackupPath(player, data.Version-1)); err != nil {
		s.reportSaveError(player, "", err)
		return false
	}
	if err := writeJSON(path, data); err != nil {
		s.reportSaveError(player, "", err)
		return false
	}
	prunePlayerBackups(filepath.Join(s.baseDir, "players", "backups"), player)

	data.Dirty = false
	s.mu.Lock()
	s.playerCache[player] = &data
	s.mu.Unlock()

	if s.onPlayerSaved != nil {
		s.onPlayerSaved(player, data.Version)
	}
	return true
}

// SaveWorldData mirrors SavePlayerData for worlds (spec §4.8).
func (s *Store) SaveWorldData(world string, data WorldSave) bool {
	s.writeSem <- struct{}{}
	defer func() { <-s.writeSem }()

	data.WorldID = world
	data.Version = s.nextVersion()
	data.SavedAt = s.nowFn()

	path := s.worldPath(world)
	if err := backupExisting(path, s.worldBackupPath(world, data.Version-1)); err != nil {
		s.reportSaveError("", world, err)
		return false
	}
	if err := writeJSON(path, data); err != nil {
		s.reportSaveError("", world, err)
		return false
	}
	prunePlayerBackups(filepath.Join(s.baseDir, "worlds", "backups"), world)

	data.Dirty = false
	s.mu.Lock()
	s.worldCache[world] = &data
	s.mu.Unlock()

	if s.onWorldSaved != nil {
		s.onWorldSaved(world, data.Version)
	}
	return true
}

func (s *Store) reportSaveError(player, world string, err error) {
	if s.log != nil {
		s.log.Error("save failed", zap.String("player", player), zap.String("world", world), zap.Error(err))
	}
	if s.onSaveError != nil {
		s.onSaveError(player, world, err)
	}
}

// LoadPlayerSave returns the cached entry if present, else reads from disk,
// else creates a default save (spec §4.8).
func (s *Store) LoadPlayerSave(player string) PlayerSave {
	s.mu.RLock()
	if cached, ok := s.playerCache[player]; ok {
		defer s.mu.RUnlock()
		return *cached
	}
	s.mu.RUnlock()

	var data PlayerSave
	if err := readJSON(s.playerPath(player), &data); err != nil {
		data = DefaultPlayerSave(player)
	}
	s.mu.Lock()
	s.playerCache[player] = &data
	s.mu.Unlock()
	return data
}

// LoadWorldSave mirrors LoadPlayerSave for worlds.
func (s *Store) LoadWorldSave(world string) WorldSave {
	s.mu.RLock()
	if cached, ok := s.worldCache[world]; ok {
		defer s.mu.RUnlock()
		return *cached
	}
	s.mu.RUnlock()

	var data WorldSave
	if err := readJSON(s.worldPath(world), &data); err != nil {
		data = DefaultWorldSave(world)
	}
	s.mu.Lock()
	s.worldCache[world] = &data
	s.mu.Unlock()
	return data
}

// UpdateCache replaces the cached entry for player without writing to disk.
// Used by callers that mutate save-backed state outside the stat
// validation path (e.g. inventory changes) and rely on the auto-save timer
// to persist it.
func (s *Store) UpdateCache(player string, data PlayerSave) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playerCache[player] = &data
}

// StatUpdateRejected is returned by UpdatePlayerPersistentState on a failed
// validation (spec §4.8).
type StatUpdateRejected struct{ Reason string }

func (e *StatUpdateRejected) Error() string { return e.Reason }

// UpdatePlayerPersistentState validates and applies a single-property
// mutation against the cached save, marking it dirty on success
// (spec §4.8).
func (s *Store) UpdatePlayerPersistentState(player, property string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.playerCache[player]
	if !ok {
		loaded := s.LoadPlayerSave(player)
		cached = &loaded
		s.playerCache[player] = cached
	}

	switch property {
	case "Health":
		if value < 0 || value > int64(cached.MaxHealth) {
			return &StatUpdateRejected{Reason: fmt.Sprintf("health %d out of range [0,%d]", value, cached.MaxHealth)}
		}
		cached.Health = int(value)
	case "Experience":
		if value < 0 {
			return &StatUpdateRejected{Reason: "experience must be >= 0"}
		}
		cached.Experience = value
	case "Money":
		if value < 0 {
			return &StatUpdateRejected{Reason: "money must be >= 0"}
		}
		cached.Money = value
	default:
		// Unknown properties are accepted without validation (spec §4.8
		// "otherwise accept").
	}
	cached.Dirty = true
	return nil
}

// SaveAllDirty saves and clears dirty flags on every player and world save
// currently marked dirty (spec §4.8 auto-save timer).
func (s *Store) SaveAllDirty() (playersSaved, worldsSaved int) {
	s.mu.RLock()
	var players []PlayerSave
	for _, p := range s.playerCache {
		if p.Dirty {
			players = append(players, *p)
		}
	}
	var worlds []WorldSave
	for _, w := range s.worldCache {
		if w.Dirty {
			worlds = append(worlds, *w)
		}
	}
	s.mu.RUnlock()

	for _, p := range players {
		if s.SavePlayerData(p.PlayerID, p) {
			playersSaved++
		}
	}
	for _, w := range worlds {
		if s.SaveWorldData(w.WorldID, w) {
			worldsSaved++
		}
	}
	return
}

// CreateClientSnapshot builds the authoritative snapshot sent to a
// connecting client (spec §4.8).
func (s *Store) CreateClientSnapshot(player string) ClientSnapshot {
	data := s.LoadPlayerSave(player)
	return ClientSnapshot{
		PlayerID:        player,
		SaveVersion:     data.Version,
		Timestamp:       s.nowFn(),
		Payload:         data,
		IsAuthoritative: true,
	}
}

// --- filesystem helpers -----------------------------------------------------

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func backupExisting(path, backupPath string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read for backup: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(backupPath), 0o755); err != nil {
		return fmt.Errorf("mkdir backups: %w", err)
	}
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// prunePlayerBackups keeps the maxBackups most recent backups (by mod time)
// for the given entity id prefix, removing the rest (spec §4.8).
func prunePlayerBackups(dir, id string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	type backupFile struct {
		name    string
		modTime time.Time
	}
	var matches []backupFile
	prefix := id + ".v"
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matches = append(matches, backupFile{name: name, modTime: info.ModTime()})
	}
	if len(matches) <= maxBackups {
		return
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].modTime.After(matches[j].modTime) })
	for _, old := range matches[maxBackups:] {
		os.Remove(filepath.Join(dir, old.name))
	}
}
