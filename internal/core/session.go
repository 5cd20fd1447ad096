package core

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// SessionState tracks the transport lifecycle as seen by the core.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosed
)

// Transport is the connection side of a session. Close must not block.
type Transport interface {
	Close() error
}

// Session is one authenticated connection's identity, position and room binding.
//
// The ID is immutable. Position and room are mutated only by the goroutine
// that owns the Registry (the Hub); Send may be called from anywhere.
type Session struct {
	ID       string
	Username string
	Avatar   string

	position Position
	roomID   string

	events    chan *Event
	transport Transport
	state     atomic.Int32
	destroyed bool
	log       zerolog.Logger
}

// NewSession constructs a session in the connecting state.
func NewSession(id, username, avatar string, spawn Position, buffer int, logger *zerolog.Logger) *Session {
	if buffer <= 0 {
		buffer = 1
	}
	s := &Session{
		ID:       id,
		Username: username,
		Avatar:   avatar,
		position: spawn,
		events:   make(chan *Event, buffer),
	}
	if logger != nil {
		s.log = logger.With().Str("session_id", id).Str("username", username).Logger()
	} else {
		s.log = zerolog.Nop()
	}
	return s
}

// Attach binds the transport and opens the session for delivery.
func (s *Session) Attach(t Transport) {
	s.transport = t
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Events is drained by the transport writer.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Position returns the last accepted position.
func (s *Session) Position() Position {
	return s.position
}

// RoomID returns the room the session is bound to, or "".
func (s *Session) RoomID() string {
	return s.roomID
}

// Snapshot returns the externally visible state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:       s.ID,
		Username: s.Username,
		Position: s.position,
		Avatar:   s.Avatar,
		RoomID:   s.roomID,
	}
}

// Send queues an event for delivery. It never blocks and never retries:
// events for a session that is not open, or whose queue is full, are dropped.
func (s *Session) Send(ev *Event) {
	if s.State() != StateOpen {
		s.log.Debug().Stringer("event", ev.Kind).Msg("session not open, dropping event")
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn().Stringer("event", ev.Kind).Msg("send queue full, dropping event")
	}
}

// UpdatePosition clamps the requested position and applies it if the world
// accepts the move. It reports whether the position changed.
func (s *Session) UpdatePosition(requested Position, w World) bool {
	next := w.Bounds.Clamp(requested)
	if !w.Accepts(s.position, next) {
		return false
	}
	s.position = next
	return true
}

// SetSpawn overrides the position without movement validation. Used for the
// optional position carried by a join request.
func (s *Session) SetSpawn(p Position, b Bounds) {
	s.position = b.Clamp(p)
}

// Destroy closes the transport and removes the session from its room.
// Calling it more than once is a no-op.
func (s *Session) Destroy(reg *Registry) {
	if s.destroyed {
		return
	}
	s.destroyed = true

	prev := SessionState(s.state.Swap(int32(StateClosed)))
	if prev != StateClosed && s.transport != nil {
		if err := s.transport.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close transport")
		}
	}

	if s.roomID != "" && reg != nil {
		if err := reg.RemoveUserFromRoom(s.roomID, s.ID); err != nil {
			s.log.Warn().Err(err).Str("room_id", s.roomID).Msg("remove destroyed session")
		}
		s.roomID = ""
	}
	s.log.Info().Msg("session destroyed")
}
