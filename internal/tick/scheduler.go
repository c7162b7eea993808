package tick

import (
	"context"

	"go.uber.org/zap"
)

// Scheduler owns the main and combat clocks and the client drift tracker
// (spec §4.6). It is the concrete type C9 composes into the server context.
type Scheduler struct {
	Main   *Clock
	Combat *Clock
	Drift  *DriftTracker
}

func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{
		Main:   newClock(ClockMain, MainInterval, log),
		Combat: newClock(ClockCombat, CombatInterval, log),
		Drift:  NewDriftTracker(),
	}
}

// Run starts both clocks and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	done := make(chan struct{}, 2)
	go func() {
		s.Main.Run(ctx)
		done <- struct{}{}
	}()
	go func() {
		s.Combat.Run(ctx)
		done <- struct{}{}
	}()
	<-ctx.Done()
	<-done
	<-done
}

// ProcessClientTick delegates to the drift tracker, using the main clock's
// current tick as the server reference (spec §4.6).
func (s *Scheduler) ProcessClientTick(player string, clientTick uint64) DriftStatus {
	return s.Drift.ProcessClientTick(player, clientTick, s.Main.CurrentTick())
}
