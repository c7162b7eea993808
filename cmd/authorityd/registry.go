package main

import (
	"sync"

	gonet "github.com/openfrontier/authority/internal/net"
)

// sessionRegistry maps authenticated player IDs to their live transport
// session, so the outbound flush loop knows who to push state updates to.
// server.Context has no notion of a transport session; this lives at the
// composition root instead (spec §4.9/§6).
type sessionRegistry struct {
	mu       sync.RWMutex
	byPlayer map[string]*gonet.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{byPlayer: make(map[string]*gonet.Session)}
}

func (r *sessionRegistry) Add(playerID string, sess *gonet.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPlayer[playerID] = sess
}

func (r *sessionRegistry) Remove(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPlayer, playerID)
}

func (r *sessionRegistry) All() []*gonet.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*gonet.Session, 0, len(r.byPlayer))
	for _, sess := range r.byPlayer {
		out = append(out, sess)
	}
	return out
}
