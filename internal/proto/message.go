package proto

import "encoding/json"

// Envelope is the only unit exchanged across the connection boundary.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	InboundTypeJoinRoom  = "JOIN_ROOM"
	InboundTypeLeaveRoom = "LEAVE_ROOM"
	InboundTypeMovement  = "MOVEMENT"
	InboundTypeChat      = "CHAT"

	OutboundTypeRoomState        = "ROOM_STATE"
	OutboundTypeUserJoined       = "USER_JOINED"
	OutboundTypeUserLeft         = "USER_LEFT"
	OutboundTypeMovement         = "MOVEMENT"
	OutboundTypeMovementRejected = "MOVEMENT_REJECTED"
	OutboundTypeChat             = "CHAT"
	OutboundTypeError            = "ERROR"
)

// Position is a 2D coordinate on the wire.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UserSnapshot describes a session to clients.
type UserSnapshot struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Position Position `json:"position"`
	Avatar   string   `json:"avatar,omitempty"`
	RoomID   string   `json:"roomId,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// RoomStatePayload carries every member of the room.
type RoomStatePayload struct {
	Users         []UserSnapshot `json:"users"`
	RoomID        string         `json:"roomId"`
	CurrentUserID string         `json:"currentUserId,omitempty"`
}

// UserPresencePayload is used by USER_JOINED and USER_LEFT.
type UserPresencePayload struct {
	User   UserSnapshot `json:"user"`
	RoomID string       `json:"roomId"`
}

// MovementPayload is the authoritative echo of a move.
type MovementPayload struct {
	UserID   string   `json:"userId"`
	Position Position `json:"position"`
	RoomID   string   `json:"roomId"`
}

// MovementRejectedPayload tells the mover where it actually is.
type MovementRejectedPayload struct {
	Error    string   `json:"error"`
	Position Position `json:"position"`
	RoomID   string   `json:"roomId"`
}

// ChatPayload is a chat line from another session.
type ChatPayload struct {
	From string `json:"from"`
	Chat string `json:"chat"`
}

// ErrorPayload describes a protocol-level error response.
type ErrorPayload struct {
	Error string `json:"error"`
}
