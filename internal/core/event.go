package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventRoomState delivers the full member list of a room.
	EventRoomState EventKind = iota
	// EventUserJoined notifies members about a session joining the room.
	EventUserJoined
	// EventUserLeft notifies members about a session leaving the room.
	EventUserLeft
	// EventMovement is the authoritative echo of an accepted move.
	EventMovement
	// EventMovementRejected tells the mover its update was refused.
	EventMovementRejected
	// EventChat carries a chat line, broadcast or private.
	EventChat
	// EventError notifies a session about a failed message.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventRoomState:
		return "room_state"
	case EventUserJoined:
		return "user_joined"
	case EventUserLeft:
		return "user_left"
	case EventMovement:
		return "movement"
	case EventMovementRejected:
		return "movement_rejected"
	case EventChat:
		return "chat"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID       string
	Username string
	Position Position
	Avatar   string
	RoomID   string
}

// Event is sent to sessions to describe what happened in a room.
// A single Event may be shared by every recipient of a broadcast and must not
// be mutated after it is sent.
type Event struct {
	Kind          EventKind
	Room          string
	User          *Snapshot  // joined / left
	Users         []Snapshot // room state
	CurrentUserID string     // room state
	UserID        string     // movement
	Position      Position   // movement / rejected
	From          string     // chat
	Text          string     // chat
	Error         *CoreError
}

func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventError, Error: err}
}
