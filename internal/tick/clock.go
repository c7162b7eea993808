package tick

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock drives one fixed-step loop, producing a Snapshot and invoking every
// registered callback on each tick (spec §4.6).
type Clock struct {
	name     ClockName
	interval time.Duration
	log      *zap.Logger

	mu        sync.Mutex
	nextID    uint64
	callbacks []Callback
	history   []Snapshot

	nowFn func() time.Time
}

func newClock(name ClockName, interval time.Duration, log *zap.Logger) *Clock {
	return &Clock{
		name:     name,
		interval: interval,
		log:      log,
		nextID:   1,
		nowFn:    time.Now,
	}
}

// RegisterCallback adds a callback invoked on every tick of this clock.
func (c *Clock) RegisterCallback(cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// Run blocks, ticking at c.interval until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	last := c.nowFn()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			c.fire(now, dt)
		}
	}
}

// fire produces the tick's snapshot, appends it to history, and invokes
// every registered callback, isolating panics per spec §4.6.
func (c *Clock) fire(at time.Time, dt time.Duration) Snapshot {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	snap := Snapshot{ID: id, Clock: c.name, At: at, Delta: dt}
	c.history = append(c.history, snap)
	if len(c.history) > snapshotHistory {
		c.history = c.history[len(c.history)-snapshotHistory:]
	}
	callbacks := append([]Callback(nil), c.callbacks...)
	c.mu.Unlock()

	for _, cb := range callbacks {
		c.invoke(cb, snap)
	}
	return snap
}

func (c *Clock) invoke(cb Callback, snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.Error("tick callback panicked",
					zap.String("clock", string(c.name)),
					zap.Uint64("tick", snap.ID),
					zap.Any("panic", r),
				)
			}
		}
	}()
	cb(snap)
}

// Snapshots returns up to the last snapshotHistory snapshots, oldest first.
func (c *Clock) Snapshots() []Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Snapshot, len(c.history))
	copy(out, c.history)
	return out
}

// CurrentTick returns the id of the tick about to be produced next, minus
// one (i.e. the most recently completed tick, 0 before any tick has run).
func (c *Clock) CurrentTick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextID - 1
}
