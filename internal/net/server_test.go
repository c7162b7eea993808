package net

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerAcceptLoopDeliversSessionAndRoundTripsEnvelope(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", 8, 8, zap.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown()

	go srv.AcceptLoop()

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	data, err := EncodeEnvelope(Envelope{Type: MsgHeartbeat, PlayerID: "alice"})
	require.NoError(t, err)
	require.NoError(t, WriteFrame(conn, data))

	select {
	case sess := <-srv.NewSessions():
		select {
		case env := <-sess.InQueue:
			assert.Equal(t, MsgHeartbeat, env.Type)
			assert.Equal(t, "alice", env.PlayerID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for inbound envelope")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for new session")
	}
}

func TestServerNotifyDeadDeliversOnDeadSessions(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", 8, 8, zap.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown()

	srv.NotifyDead(42)
	select {
	case id := <-srv.DeadSessions():
		assert.Equal(t, uint64(42), id)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dead session notification")
	}
}
