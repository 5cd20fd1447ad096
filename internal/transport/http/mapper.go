package http

import (
	"errors"

	"github.com/samber/lo"

	"github.com/vovakirdan/presence-server/internal/core"
	"github.com/vovakirdan/presence-server/internal/proto"
)

// frameToCommand decodes a raw frame on behalf of s. Frames that cannot be
// decoded still produce a command so the error reply is ordered with the rest
// of the session's traffic.
func frameToCommand(s *core.Session, data []byte) *core.Command {
	inbound, err := proto.Decode(data)
	if err != nil {
		msg := core.MsgInvalidFormat
		if errors.Is(err, proto.ErrUnknownType) {
			msg = core.MsgUnknownType
		}
		return &core.Command{Kind: core.CommandReject, Session: s, Error: core.ProtocolError(msg)}
	}
	return inboundToCommand(s, inbound)
}

func inboundToCommand(s *core.Session, inbound proto.Inbound) *core.Command {
	switch msg := inbound.(type) {
	case proto.JoinRoom:
		return &core.Command{
			Kind:     core.CommandJoinRoom,
			Session:  s,
			Room:     msg.RoomID,
			Position: corePosition(msg.Position),
		}
	case proto.LeaveRoom:
		return &core.Command{Kind: core.CommandLeaveRoom, Session: s}
	case proto.Movement:
		return &core.Command{
			Kind:     core.CommandMove,
			Session:  s,
			Position: corePosition(msg.Position),
		}
	case proto.Chat:
		return &core.Command{
			Kind:    core.CommandChat,
			Session: s,
			Text:    msg.Message,
			Target:  msg.UserID,
		}
	default:
		return &core.Command{Kind: core.CommandReject, Session: s, Error: core.ProtocolError(core.MsgUnknownType)}
	}
}

func corePosition(p *proto.Position) *core.Position {
	if p == nil {
		return nil
	}
	return &core.Position{X: p.X, Y: p.Y}
}

func wirePosition(p core.Position) proto.Position {
	return proto.Position{X: p.X, Y: p.Y}
}

func wireSnapshot(s core.Snapshot) proto.UserSnapshot {
	return proto.UserSnapshot{
		ID:       s.ID,
		Username: s.Username,
		Position: wirePosition(s.Position),
		Avatar:   s.Avatar,
		RoomID:   s.RoomID,
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventRoomState:
		return proto.Encode(proto.OutboundTypeRoomState, proto.RoomStatePayload{
			Users: lo.Map(event.Users, func(s core.Snapshot, _ int) proto.UserSnapshot {
				return wireSnapshot(s)
			}),
			RoomID:        event.Room,
			CurrentUserID: event.CurrentUserID,
		})
	case core.EventUserJoined, core.EventUserLeft:
		typ := proto.OutboundTypeUserJoined
		if event.Kind == core.EventUserLeft {
			typ = proto.OutboundTypeUserLeft
		}
		var user proto.UserSnapshot
		if event.User != nil {
			user = wireSnapshot(*event.User)
		}
		return proto.Encode(typ, proto.UserPresencePayload{User: user, RoomID: event.Room})
	case core.EventMovement:
		return proto.Encode(proto.OutboundTypeMovement, proto.MovementPayload{
			UserID:   event.UserID,
			Position: wirePosition(event.Position),
			RoomID:   event.Room,
		})
	case core.EventMovementRejected:
		msg := core.MsgMovementRejected
		if event.Error != nil {
			msg = event.Error.Message
		}
		return proto.Encode(proto.OutboundTypeMovementRejected, proto.MovementRejectedPayload{
			Error:    msg,
			Position: wirePosition(event.Position),
			RoomID:   event.Room,
		})
	case core.EventChat:
		return proto.Encode(proto.OutboundTypeChat, proto.ChatPayload{From: event.From, Chat: event.Text})
	case core.EventError:
		msg := core.MsgInvalidFormat
		if event.Error != nil {
			msg = event.Error.Message
		}
		return proto.Encode(proto.OutboundTypeError, proto.ErrorPayload{Error: msg})
	default:
		return proto.Encode(proto.OutboundTypeError, proto.ErrorPayload{Error: core.MsgUnknownType})
	}
}
