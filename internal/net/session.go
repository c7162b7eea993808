package net

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// SessionState tracks a connection's position in the login/play lifecycle.
type SessionState int32

const (
	StateHandshake SessionState = iota
	StateAuthenticated
	StatePlaying
	StateDisconnecting
)

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop
// (teacher's net.Session idiom, generalized to the gob envelope framing).
type Session struct {
	ID   uint64
	conn net.Conn

	state atomic.Int32

	InQueue  chan Envelope // game loop reads decoded envelopes from here
	OutQueue chan Envelope // writer goroutine reads from here

	IP       string
	PlayerID string

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func NewSession(conn net.Conn, id uint64, inSize, outSize int, log *zap.Logger) *Session {
	s := &Session{
		ID:       id,
		conn:     conn,
		InQueue:  make(chan Envelope, inSize),
		OutQueue: make(chan Envelope, outSize),
		IP:       conn.RemoteAddr().String(),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.Uint64("session", id)),
	}
	s.state.Store(int32(StateHandshake))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *Session) SetState(st SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send queues an envelope for sending. Non-blocking: if OutQueue is full,
// the session is disconnected (backpressure), matching the teacher's
// slow-consumer policy.
func (s *Session) Send(env Envelope) {
	if s.closed.Load() {
		return
	}
	select {
	case s.OutQueue <- env:
	default:
		s.log.Warn("outbound queue full, disconnecting slow client")
		s.Close()
	}
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(StateDisconnecting)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// Done returns a channel that closes once the session has torn down, so
// callers can react to disconnects without polling IsClosed.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

// readLoop runs in its own goroutine. It reads frames from the TCP
// connection, decodes the envelope, and pushes it onto InQueue for the
// game loop to consume.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		payload, err := ReadFrame(s.conn)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("frame read error", zap.Error(err))
			}
			return
		}

		env, err := DecodeEnvelope(payload)
		if err != nil {
			// Protocol violation: malformed envelope. Reject and keep the
			// connection open per spec §7's "do not disconnect on first".
			s.log.Debug("envelope decode error", zap.Error(err))
			continue
		}

		select {
		case s.InQueue <- env:
		case <-s.closeCh:
			return
		}
	}
}

// writeLoop runs in its own goroutine. It reads envelopes from OutQueue,
// encodes them, and writes them as framed data to the TCP connection.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case env := <-s.OutQueue:
			data, err := EncodeEnvelope(env)
			if err != nil {
				s.log.Error("envelope encode error", zap.Error(err))
				continue
			}

			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := WriteFrame(s.conn, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("frame write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
