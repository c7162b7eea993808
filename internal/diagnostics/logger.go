package diagnostics

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Logger is the Diagnostics Logger (C10). All operations are lock-guarded to
// preserve readback consistency (spec §4.10).
type Logger struct {
	mu sync.Mutex

	ring   []Event // fixed capacity ring, oldest overwritten first
	nextID uint64
	head   int
	count  int

	snapshots []StateSnapshot // cap snapshotCapacity, oldest evicted first

	perPlayer map[string]map[EventType]int

	log                *zap.Logger
	nowFn              func() time.Time
	bytesSinceRotation int64
	currentFile        string
}

func NewLogger(log *zap.Logger) *Logger {
	return &Logger{
		ring:      make([]Event, ringCapacity),
		perPlayer: make(map[string]map[EventType]int),
		log:       log,
		nowFn:     time.Now,
	}
}

func (l *Logger) record(evt Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	evt.ID = l.nextID
	l.nextID++
	evt.Timestamp = l.nowFn()

	l.ring[l.head] = evt
	l.head = (l.head + 1) % ringCapacity
	if l.count < ringCapacity {
		l.count++
	}

	if evt.PlayerID != "" {
		byType, ok := l.perPlayer[evt.PlayerID]
		if !ok {
			byType = make(map[EventType]int)
			l.perPlayer[evt.PlayerID] = byType
		}
		byType[evt.Type]++
	}

	if l.log != nil {
		l.log.Debug("diagnostic event",
			zap.String("type", string(evt.Type)),
			zap.String("player", evt.PlayerID),
			zap.String("details", evt.Details),
		)
	}
}

// Tick writes a tick-boundary event (spec §4.10).
func (l *Logger) Tick(serverTick uint64, details string) {
	l.record(Event{Type: EventTick, Details: details, ServerTick: serverTick})
}

// Position writes a position-update event.
func (l *Logger) Position(player string, serverTick uint64, payload map[string]any) {
	l.record(Event{Type: EventPosition, PlayerID: player, ServerTick: serverTick, Payload: payload})
}

// Combat writes a combat-action event.
func (l *Logger) Combat(player string, serverTick uint64, payload map[string]any) {
	l.record(Event{Type: EventCombat, PlayerID: player, ServerTick: serverTick, Payload: payload})
}

// Connection writes a connect/disconnect event.
func (l *Logger) Connection(player, details string) {
	l.record(Event{Type: EventConnection, PlayerID: player, Details: details})
}

// Violation writes a trust-boundary violation event.
func (l *Logger) Violation(player, kind string, total int) {
	l.record(Event{Type: EventViolation, PlayerID: player, Details: kind, Payload: map[string]any{"total": total}})
}

// Desync writes a client drift/resync event.
func (l *Logger) Desync(player string, drift int64) {
	l.record(Event{Type: EventDesync, PlayerID: player, Payload: map[string]any{"drift": drift}})
}

// PlayerAggregates returns the per-type event totals for player.
func (l *Logger) PlayerAggregates(player string) map[EventType]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[EventType]int)
	for t, n := range l.perPlayer[player] {
		out[t] = n
	}
	return out
}

// Range returns up to the last n events, oldest first.
func (l *Logger) Range(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > l.count {
		n = l.count
	}
	out := make([]Event, n)
	start := (l.head - n + ringCapacity) % ringCapacity
	for i := 0; i < n; i++ {
		out[i] = l.ring[(start+i)%ringCapacity]
	}
	return out
}

// ExportJSONL renders the last n events as newline-delimited JSON, one
// object per line, for replay (spec §4.10).
func (l *Logger) ExportJSONL(n int) ([]byte, error) {
	events := l.Range(n)
	var buf []byte
	for _, e := range events {
		line, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	l.mu.Lock()
	l.bytesSinceRotation += int64(len(buf))
	rotated := l.bytesSinceRotation >= rotationSizeBytes
	if rotated {
		l.bytesSinceRotation = 0
	}
	l.mu.Unlock()
	return buf, nil
}

// Flush renders the ring buffer as JSONL and appends it to a file under
// dir, named logs/network_<ts>.jsonl (spec §6), rolling over to a new file
// once the previous one crosses the 100MB rotation threshold. Returns the
// path written to, or "" if there was nothing to flush.
func (l *Logger) Flush(dir string) (string, error) {
	data, err := l.ExportJSONL(ringCapacity)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	l.mu.Lock()
	if l.currentFile == "" || l.bytesSinceRotation == 0 {
		l.currentFile = filepath.Join(dir, fmt.Sprintf("network_%d.jsonl", l.nowFn().UnixNano()))
	}
	path := l.currentFile
	l.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// TakeSnapshot stores a new state snapshot keyed by tick, evicting the
// oldest if at capacity (spec §4.10).
func (l *Logger) TakeSnapshot(snap StateSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = append(l.snapshots, snap)
	if len(l.snapshots) > snapshotCapacity {
		l.snapshots = l.snapshots[len(l.snapshots)-snapshotCapacity:]
	}
}

// Snapshots returns a copy of the retained snapshots, oldest first.
func (l *Logger) Snapshots() []StateSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]StateSnapshot, len(l.snapshots))
	copy(out, l.snapshots)
	return out
}

// CompareSnapshots diffs two snapshots: presence/absence sets, position
// distance, and health delta per entity present in both (spec §4.10).
func CompareSnapshots(a, b StateSnapshot) SnapshotDiff {
	diff := SnapshotDiff{
		TickA:         a.Tick,
		TickB:         b.Tick,
		PositionDelta: make(map[string]float64),
		HealthDelta:   make(map[string]int),
	}
	for id, sb := range b.Entities {
		sa, ok := a.Entities[id]
		if !ok {
			diff.OnlyInB = append(diff.OnlyInB, id)
			continue
		}
		diff.PositionDelta[id] = distance(sa.Position, sb.Position)
		diff.HealthDelta[id] = sb.Health - sa.Health
	}
	for id := range a.Entities {
		if _, ok := b.Entities[id]; !ok {
			diff.OnlyInA = append(diff.OnlyInA, id)
		}
	}
	return diff
}

func distance(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
