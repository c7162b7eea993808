package net

import "go.uber.org/zap"

// Handler processes one decoded envelope for a session.
type Handler func(sess *Session, env Envelope)

// Dispatcher routes inbound envelopes to a handler by message type,
// rejecting types that don't fit the session's current state (spec §7's
// protocol-violation category: malformed envelope, bad session).
type Dispatcher struct {
	handlers map[MessageType]Handler
	log      *zap.Logger
}

func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{handlers: make(map[MessageType]Handler), log: log}
}

// On registers the handler for typ, overwriting any previous registration.
func (d *Dispatcher) On(typ MessageType, h Handler) {
	d.handlers[typ] = h
}

// Dispatch routes one envelope read from sess.InQueue. Pre-authentication
// sessions may only send Login/Register; anything else is a protocol
// violation and is dropped without disconnecting (spec §7.1).
func (d *Dispatcher) Dispatch(sess *Session, env Envelope) {
	if sess.State() == StateHandshake && env.Type != MsgLogin && env.Type != MsgRegister {
		d.log.Debug("rejecting message before authentication",
			zap.Uint64("session", sess.ID), zap.String("type", string(env.Type)))
		return
	}

	h, ok := d.handlers[env.Type]
	if !ok {
		d.log.Debug("no handler registered", zap.String("type", string(env.Type)))
		return
	}
	h(sess, env)
}

// Run drains sess.InQueue, dispatching each envelope, until the session
// closes or ctxDone fires.
func (d *Dispatcher) Run(sess *Session, ctxDone <-chan struct{}) {
	for {
		select {
		case env := <-sess.InQueue:
			d.Dispatch(sess, env)
		case <-ctxDone:
			return
		}
	}
}
