package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat means the frame is not a decodable envelope.
	ErrInvalidFormat = errors.New("invalid message format")
	// ErrUnknownType means the envelope type is not part of the protocol.
	ErrUnknownType = errors.New("unknown message type")
)

// Inbound is one decoded client message. The set of implementations is
// closed: JoinRoom, LeaveRoom, Movement and Chat.
type Inbound interface {
	inboundType() string
}

// JoinRoom asks to be placed into a room, optionally at a given position.
type JoinRoom struct {
	RoomID   string    `json:"roomId"`
	Position *Position `json:"position,omitempty"`
}

// LeaveRoom asks to leave the current room.
type LeaveRoom struct{}

// Movement requests a new position.
type Movement struct {
	Position *Position `json:"position"`
}

// Chat sends a message to the room, or to one member when UserID is set.
type Chat struct {
	Message string `json:"message"`
	UserID  string `json:"userId,omitempty"`
}

func (JoinRoom) inboundType() string  { return InboundTypeJoinRoom }
func (LeaveRoom) inboundType() string { return InboundTypeLeaveRoom }
func (Movement) inboundType() string  { return InboundTypeMovement }
func (Chat) inboundType() string      { return InboundTypeChat }

// Decode parses a raw frame into a typed inbound message.
//
// Frames that are not a JSON object, and payloads that are missing or do not
// match the declared type, yield ErrInvalidFormat. LEAVE_ROOM ignores its
// payload entirely.
func Decode(data []byte) (Inbound, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidFormat
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	switch env.Type {
	case InboundTypeJoinRoom:
		var msg JoinRoom
		if err := decodePayload(env.Payload, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case InboundTypeLeaveRoom:
		return LeaveRoom{}, nil
	case InboundTypeMovement:
		var msg Movement
		if err := decodePayload(env.Payload, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case InboundTypeChat:
		var msg Chat
		if err := decodePayload(env.Payload, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return fmt.Errorf("%w: payload must be an object", ErrInvalidFormat)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return nil
}

// Encode builds the outbound frame for a given type and payload.
func Encode(typ string, payload any) Outbound {
	return Outbound{Type: typ, Payload: payload}
}
