package net

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() { server.Close(); client.Close() })
	return NewSession(server, 1, 8, 8, zap.NewNop())
}

func TestDispatchRejectsNonLoginBeforeAuthentication(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	sess := newTestSession(t)

	var called bool
	d.On(MsgPosition, func(sess *Session, env Envelope) { called = true })

	d.Dispatch(sess, Envelope{Type: MsgPosition})
	assert.False(t, called)
}

func TestDispatchAllowsLoginBeforeAuthentication(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	sess := newTestSession(t)

	var called bool
	d.On(MsgLogin, func(sess *Session, env Envelope) { called = true })

	d.Dispatch(sess, Envelope{Type: MsgLogin})
	assert.True(t, called)
}

func TestDispatchRoutesToRegisteredHandlerAfterAuthentication(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	sess := newTestSession(t)
	sess.SetState(StatePlaying)

	var got Envelope
	d.On(MsgCombat, func(sess *Session, env Envelope) { got = env })

	d.Dispatch(sess, Envelope{Type: MsgCombat, PlayerID: "alice"})
	assert.Equal(t, "alice", got.PlayerID)
}

func TestDispatchIgnoresUnregisteredType(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	sess := newTestSession(t)
	sess.SetState(StatePlaying)

	require.NotPanics(t, func() {
		d.Dispatch(sess, Envelope{Type: MsgChat})
	})
}

func TestSessionSendClosesOnFullOutQueue(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sess := NewSession(server, 1, 1, 1, zap.NewNop())
	sess.Send(Envelope{Type: MsgHeartbeat})
	sess.Send(Envelope{Type: MsgHeartbeat}) // second send overflows the 1-slot queue

	time.Sleep(10 * time.Millisecond)
	assert.True(t, sess.IsClosed())
}
