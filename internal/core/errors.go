package core

import "errors"

// ErrorKind classifies a per-message failure. None of them close the connection.
type ErrorKind int

const (
	// ErrKindProtocol is an unparseable frame or unknown message type.
	ErrKindProtocol ErrorKind = iota
	// ErrKindPrecondition is an action that needs room membership the session lacks.
	ErrKindPrecondition
	// ErrKindValidation is a missing required field or a rejected movement.
	ErrKindValidation
)

// Wire messages sent back in ERROR and MOVEMENT_REJECTED payloads.
const (
	MsgInvalidFormat    = "Invalid message format"
	MsgUnknownType      = "Unknown message type"
	MsgRoomIDRequired   = "Room ID is required"
	MsgInvalidMovement  = "Not in a room or invalid position"
	MsgInvalidChat      = "Not in a room or empty message"
	MsgMovementRejected = "Invalid movement"
	MsgRateLimited      = "Rate limit exceeded"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrHubStopped      = errors.New("hub stopped")
)

// CoreError wraps a kind and human-readable message.
type CoreError struct {
	Kind    ErrorKind
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(kind ErrorKind, msg string) *CoreError {
	return &CoreError{Kind: kind, Message: msg}
}

// ProtocolError builds the error for frames that cannot be routed.
func ProtocolError(msg string) *CoreError {
	return coreError(ErrKindProtocol, msg)
}
