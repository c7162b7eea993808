package conflict

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// targetState holds the lock and pending list for one contended target.
type targetState struct {
	mu      sync.Mutex
	lock    *lockHolder
	pending []Action
}

// Resolver is the Conflict Resolver (C4). All per-target state is guarded by
// a mutex keyed on target id; the resolver is the only remover of entries
// from a target's pending list (spec §9 linearizability note).
type Resolver struct {
	mu      sync.Mutex
	targets map[string]*targetState
	history []Resolution // ring buffer, most recent last, cap historySize
	nowFn   func() time.Time
}

func NewResolver() *Resolver {
	return &Resolver{
		targets: make(map[string]*targetState),
		nowFn:   time.Now,
	}
}

func (r *Resolver) stateFor(target string) *targetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	ts, ok := r.targets[target]
	if !ok {
		ts = &targetState{}
		r.targets[target] = ts
	}
	return ts
}

// LockRejected is returned by SubmitAction when the target's lock is held by
// another player within the conflict window.
type LockRejected struct {
	HolderID string
}

func (e *LockRejected) Error() string {
	return fmt.Sprintf("target locked by %s", e.HolderID)
}

// SubmitAction attempts to acquire the target's lock and, on success,
// appends the action to the target's pending list (spec §4.4). Returns the
// action's 1-based sequence position, or a *LockRejected error.
func (r *Resolver) SubmitAction(target, player string, typ ConflictType, serverTick uint64, payload any) (int, error) {
	ts := r.stateFor(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := r.nowFn()
	switch {
	case ts.lock == nil:
		ts.lock = &lockHolder{playerID: player, acquiredAt: now}
	case now.Sub(ts.lock.acquiredAt) > conflictWindow:
		ts.lock = &lockHolder{playerID: player, acquiredAt: now}
	case ts.lock.playerID == player:
		ts.lock.acquiredAt = now
	default:
		return 0, &LockRejected{HolderID: ts.lock.playerID}
	}

	ts.pending = append(ts.pending, Action{
		TargetID:   target,
		PlayerID:   player,
		Type:       typ,
		ServerTick: serverTick,
		ReceivedAt: now,
		Sequence:   len(ts.pending) + 1,
		Payload:    payload,
	})
	seq := len(ts.pending)

	if len(ts.pending) >= maxPending {
		r.resolveLocked(target, ts)
	}

	return seq, nil
}

// Resolve triggers resolution of target's pending list explicitly (e.g.
// end-of-tick). No-op if the list is empty.
func (r *Resolver) Resolve(target string) *Resolution {
	ts := r.stateFor(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return r.resolveLocked(target, ts)
}

// resolveLocked must be called with ts.mu held.
func (r *Resolver) resolveLocked(target string, ts *targetState) *Resolution {
	if len(ts.pending) == 0 {
		return nil
	}
	actions := ts.pending
	ts.pending = nil
	typ := actions[0].Type
	strategy := strategyFor(typ)

	res := Resolution{
		TargetID:   target,
		Type:       typ,
		Strategy:   strategy,
		ResolvedAt: r.nowFn(),
	}

	switch strategy {
	case FirstWins:
		sorted := append([]Action(nil), actions...)
		sort.SliceStable(sorted, func(i, j int) bool {
			if !sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
				return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
			}
			return sorted[i].Sequence < sorted[j].Sequence
		})
		winner := sorted[0]
		res.Winner = &winner
		res.Losers = sorted[1:]

	case ServerTimestamp:
		sorted := append([]Action(nil), actions...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ServerTick < sorted[j].ServerTick
		})
		winner := sorted[0]
		res.Winner = &winner
		res.Losers = sorted[1:]

	case LowerIdWins:
		sorted := append([]Action(nil), actions...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].PlayerID < sorted[j].PlayerID
		})
		winner := sorted[0]
		res.Winner = &winner
		res.Losers = sorted[1:]

	case RejectBoth:
		res.Winner = nil
		res.Losers = actions
	}

	// Resolution releases the lock outright (spec §8 scenario 3) rather
	// than leaving it held for the submitter until ReclaimStaleLocks
	// expires it: a resolved target should be immediately contestable
	// again.
	ts.lock = nil

	r.appendHistory(res)
	return &res
}

func (r *Resolver) appendHistory(res Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, res)
	if len(r.history) > historySize {
		r.history = r.history[len(r.history)-historySize:]
	}
}

// RecentResolutions returns up to the last historySize resolutions, oldest
// first, for diagnostics (spec §4.4).
func (r *Resolver) RecentResolutions() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Resolution, len(r.history))
	copy(out, r.history)
	return out
}

// ReclaimStaleLocks releases every lock older than
// staleMultiple*conflictWindow, whether or not actions are still pending
// against its target. Intended to run
// on a periodic sweep (spec §4.4).
func (r *Resolver) ReclaimStaleLocks() int {
	r.mu.Lock()
	targets := make([]*targetState, 0, len(r.targets))
	for _, ts := range r.targets {
		targets = append(targets, ts)
	}
	r.mu.Unlock()

	now := r.nowFn()
	reclaimed := 0
	staleAfter := staleMultiple * conflictWindow
	for _, ts := range targets {
		ts.mu.Lock()
		if ts.lock != nil && now.Sub(ts.lock.acquiredAt) > staleAfter {
			ts.lock = nil
			reclaimed++
		}
		ts.mu.Unlock()
	}
	return reclaimed
}

// PendingCount returns the number of actions currently queued for target,
// for diagnostics and tests.
func (r *Resolver) PendingCount(target string) int {
	ts := r.stateFor(target)
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

// RemoveTarget drops all resolver state for a target (e.g. entity destroyed).
func (r *Resolver) RemoveTarget(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.targets, target)
}
