// Package server composes the Identity Registry, Authority Policy, Trust
// Boundary, Conflict Resolver, State Replicator, Tick Scheduler, Session
// Recovery, and Save Store into the Server Context facade (C9): the single
// entry point transport handlers call into.
package server

import (
	"sync"

	"go.uber.org/zap"

	"github.com/openfrontier/authority/internal/conflict"
	"github.com/openfrontier/authority/internal/core/ecs"
	"github.com/openfrontier/authority/internal/core/event"
	"github.com/openfrontier/authority/internal/diagnostics"
	"github.com/openfrontier/authority/internal/identity"
	"github.com/openfrontier/authority/internal/replication"
	"github.com/openfrontier/authority/internal/save"
	"github.com/openfrontier/authority/internal/session"
	"github.com/openfrontier/authority/internal/tick"
	"github.com/openfrontier/authority/internal/trust"
)

// playerRecord is the in-memory record C9 holds for a connected player
// (spec §4.9).
type playerRecord struct {
	EntityID ecs.EntityID
	Username string
}

// Context is the Server Context (C9): it composes every other component and
// is the single entry point transport handlers call into.
type Context struct {
	Log *zap.Logger

	Identity  *identity.Registry
	Trust     *trust.Boundary
	Conflict  *conflict.Resolver
	Replicate *replication.Replicator
	Scheduler *tick.Scheduler
	Recovery  *session.Recovery
	Heartbeat *session.HeartbeatTracker
	Saves     *save.Store
	Diagnostics *diagnostics.Logger
	Bus       *event.Bus

	playersMu sync.RWMutex
	players   map[string]*playerRecord
}

// New constructs every component with its package defaults (only saveDir
// is taken from the caller) and wires them together. No config section
// other than the save directory reaches the components.
func New(log *zap.Logger, saveDir string) *Context {
	bus := event.NewBus()
	c := &Context{
		Log:       log,
		Identity:  identity.NewRegistry(),
		Trust:     trust.New(trust.DefaultConfig()),
		Conflict:  conflict.NewResolver(),
		Replicate: replication.NewReplicator(),
		Scheduler: tick.NewScheduler(log),
		Recovery:  session.NewRecovery(log),
		Heartbeat: session.NewHeartbeatTracker(log),
		Saves:     save.NewStore(saveDir, log),
		Diagnostics: diagnostics.NewLogger(log),
		Bus:       bus,
		players:   make(map[string]*playerRecord),
	}
	c.wireHooks()
	c.wireDiagnostics()
	return c
}
