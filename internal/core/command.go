package core

// CommandKind describes what the session wants to do.
type CommandKind int

const (
	// CommandJoinRoom binds the session into a room.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom removes the session from its room.
	CommandLeaveRoom
	// CommandMove requests a position update.
	CommandMove
	// CommandChat relays a chat message to the room or one member.
	CommandChat
	// CommandReject answers a frame that could not be routed.
	CommandReject
	// CommandDisconnect tears the session down.
	CommandDisconnect
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join_room"
	case CommandLeaveRoom:
		return "leave_room"
	case CommandMove:
		return "move"
	case CommandChat:
		return "chat"
	case CommandReject:
		return "reject"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Command represents an action requested on behalf of a session.
type Command struct {
	Kind    CommandKind
	Session *Session

	Room     string    // join
	Position *Position // join override / move; nil when absent
	Text     string    // chat
	Target   string    // chat; non-empty means private delivery
	Error    *CoreError
}
