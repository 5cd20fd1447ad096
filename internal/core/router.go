package core

import "errors"

// route dispatches a single command. Nothing raised while handling it may
// escape: panics become an ERROR reply and the connection stays open.
func (h *Hub) route(cmd *Command) {
	s := cmd.Session
	if s == nil {
		h.log.Warn().Stringer("command", cmd.Kind).Msg("command without session")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error().Interface("panic", rec).Str("session_id", s.ID).Stringer("command", cmd.Kind).Msg("command handler panicked")
			s.Send(errorEvent(ProtocolError(MsgInvalidFormat)))
		}
	}()

	switch cmd.Kind {
	case CommandJoinRoom:
		h.joinRoom(s, cmd)
	case CommandLeaveRoom:
		h.leaveRoom(s)
	case CommandMove:
		h.move(s, cmd)
	case CommandChat:
		h.chat(s, cmd)
	case CommandReject:
		err := cmd.Error
		if err == nil {
			err = ProtocolError(MsgInvalidFormat)
		}
		s.Send(errorEvent(err))
	case CommandDisconnect:
		s.Destroy(h.registry)
		delete(h.sessions, s.ID)
	default:
		s.Send(errorEvent(ProtocolError(MsgUnknownType)))
	}
}

func (h *Hub) joinRoom(s *Session, cmd *Command) {
	if cmd.Room == "" {
		s.Send(errorEvent(coreError(ErrKindValidation, MsgRoomIDRequired)))
		return
	}
	h.registry.JoinRoom(cmd.Room, s, cmd.Position)
}

func (h *Hub) leaveRoom(s *Session) {
	if s.roomID == "" {
		return
	}
	if err := h.registry.RemoveUserFromRoom(s.roomID, s.ID); err != nil {
		h.log.Warn().Err(err).Str("session_id", s.ID).Msg("leave room")
	}
}

func (h *Hub) move(s *Session, cmd *Command) {
	if s.roomID == "" || cmd.Position == nil {
		s.Send(errorEvent(coreError(ErrKindPrecondition, MsgInvalidMovement)))
		return
	}
	if err := h.registry.UpdatePosition(s.roomID, s.ID, *cmd.Position); err != nil {
		h.logRoomError(s, err, "move")
	}
}

func (h *Hub) chat(s *Session, cmd *Command) {
	if s.roomID == "" || cmd.Text == "" {
		s.Send(errorEvent(coreError(ErrKindPrecondition, MsgInvalidChat)))
		return
	}
	if err := h.registry.SendChat(s.roomID, s.ID, cmd.Text, cmd.Target); err != nil {
		h.logRoomError(s, err, "chat")
	}
}

func (h *Hub) logRoomError(s *Session, err error, op string) {
	ev := h.log.Warn()
	if errors.Is(err, ErrSessionNotFound) {
		ev = h.log.Debug()
	}
	ev.Err(err).Str("session_id", s.ID).Str("room_id", s.roomID).Str("op", op).Msg("room operation failed")
}
