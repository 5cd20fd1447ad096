package core

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Room groups sessions that see each other's presence, movement and chat.
//
// A Room is not safe for concurrent use; the Registry owner serializes access.
// Broadcasts reach members in insertion order.
type Room struct {
	ID   string
	Name string

	members      map[string]*Session
	order        []string
	adminIDs     map[string]struct{}
	superAdminID string
	emptySince   time.Time

	world World
	now   func() time.Time
	log   zerolog.Logger
}

// NewRoom constructs an empty room.
func NewRoom(id, name string, world World, logger *zerolog.Logger) *Room {
	r := &Room{
		ID:       id,
		Name:     name,
		members:  make(map[string]*Session),
		adminIDs: make(map[string]struct{}),
		world:    world,
		now:      time.Now,
	}
	if logger != nil {
		r.log = logger.With().Str("room_id", id).Logger()
	} else {
		r.log = zerolog.Nop()
	}
	r.emptySince = r.now()
	return r
}

// AddUser binds s into the room, sends it the full room state and announces
// it to the other members.
//
// A member with the same username but a different id is treated as a stale
// connection of a reconnecting user: it is evicted without USER_LEFT, the new
// session inherits its admin roles, and the join is not announced.
func (r *Room) AddUser(s *Session) {
	if _, exists := r.members[s.ID]; exists {
		r.log.Warn().Str("session_id", s.ID).Msg("session already in room")
		return
	}

	reconnect := false
	if stale := r.memberByUsername(s.Username); stale != nil {
		reconnect = true
		wasSuper := r.superAdminID == stale.ID
		_, wasAdmin := r.adminIDs[stale.ID]

		r.detach(stale.ID)
		if wasSuper {
			r.superAdminID = s.ID
		}
		if wasAdmin {
			r.adminIDs[s.ID] = struct{}{}
		}
		r.log.Info().
			Str("stale_session_id", stale.ID).
			Str("session_id", s.ID).
			Str("username", s.Username).
			Msg("evicted stale session on reconnect")
	}

	if r.superAdminID == "" {
		r.superAdminID = s.ID
	}
	r.members[s.ID] = s
	r.order = append(r.order, s.ID)
	s.roomID = r.ID

	s.Send(r.stateEvent(s.ID))

	if !reconnect {
		snap := s.Snapshot()
		r.Broadcast(&Event{Kind: EventUserJoined, Room: r.ID, User: &snap}, s.ID)
	}
	r.log.Info().Str("session_id", s.ID).Int("members", len(r.order)).Msg("session joined")
}

// RemoveUser unbinds a member and notifies the rest. It reports whether the
// session was a member.
func (r *Room) RemoveUser(sessionID string) bool {
	s, ok := r.members[sessionID]
	if !ok {
		return false
	}
	snap := s.Snapshot()

	r.detach(sessionID)
	snap.RoomID = ""

	r.Broadcast(&Event{Kind: EventUserLeft, Room: r.ID, User: &snap}, "")
	r.log.Info().Str("session_id", sessionID).Int("members", len(r.order)).Msg("session left")
	return true
}

// detach removes a member and repairs the admin invariants without
// notifying anyone.
func (r *Room) detach(sessionID string) {
	s := r.members[sessionID]
	delete(r.members, sessionID)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == sessionID })
	delete(r.adminIDs, sessionID)

	if r.superAdminID == sessionID {
		r.superAdminID = r.successor()
	}
	if s != nil {
		s.roomID = ""
	}
	if len(r.order) == 0 {
		r.emptySince = r.now()
	}
}

// successor picks the next super admin: the lowest remaining admin id, else
// the longest-present member, else nobody.
func (r *Room) successor() string {
	if len(r.adminIDs) > 0 {
		return lo.Min(lo.Keys(r.adminIDs))
	}
	if len(r.order) > 0 {
		return r.order[0]
	}
	return ""
}

// UpdatePosition validates and applies a move for a member. Accepted moves are
// echoed to every member including the mover; rejected ones go to the mover only.
func (r *Room) UpdatePosition(sessionID string, requested Position) error {
	s, ok := r.members[sessionID]
	if !ok {
		r.log.Warn().Str("session_id", sessionID).Msg("move for unknown session")
		return ErrSessionNotFound
	}

	if s.UpdatePosition(requested, r.world) {
		r.Broadcast(&Event{
			Kind:     EventMovement,
			Room:     r.ID,
			UserID:   s.ID,
			Position: s.Position(),
		}, "")
		return nil
	}

	s.Send(&Event{
		Kind:     EventMovementRejected,
		Room:     r.ID,
		Position: s.Position(),
		Error:    coreError(ErrKindValidation, MsgMovementRejected),
	})
	return nil
}

// SendChat relays a chat line. A non-empty target delivers it to that member
// only; otherwise every member except the sender receives it.
func (r *Room) SendChat(fromID, text, targetID string) error {
	if _, ok := r.members[fromID]; !ok {
		r.log.Warn().Str("session_id", fromID).Msg("chat from unknown session")
		return ErrSessionNotFound
	}

	ev := &Event{Kind: EventChat, Room: r.ID, From: fromID, Text: text}
	if targetID != "" {
		if !r.Notify(targetID, ev) {
			r.log.Debug().Str("session_id", fromID).Str("target_id", targetID).Msg("private chat target not in room")
		}
		return nil
	}
	r.Broadcast(ev, fromID)
	return nil
}

// Broadcast sends an event to every member except exceptID.
func (r *Room) Broadcast(ev *Event, exceptID string) {
	for _, id := range r.order {
		if id == exceptID {
			continue
		}
		r.members[id].Send(ev)
	}
}

// Notify sends an event to a single member and reports whether it was found.
func (r *Room) Notify(sessionID string, ev *Event) bool {
	s, ok := r.members[sessionID]
	if !ok {
		return false
	}
	s.Send(ev)
	return true
}

// SendState delivers a fresh ROOM_STATE to every member.
func (r *Room) SendState() {
	for _, id := range r.order {
		r.members[id].Send(r.stateEvent(id))
	}
}

func (r *Room) stateEvent(currentID string) *Event {
	return &Event{
		Kind:          EventRoomState,
		Room:          r.ID,
		Users:         r.Snapshots(),
		CurrentUserID: currentID,
	}
}

// SetAdmin grants admin to a member. The first admin of a room without a
// super admin also becomes super admin.
func (r *Room) SetAdmin(sessionID string) bool {
	if _, ok := r.members[sessionID]; !ok {
		return false
	}
	r.adminIDs[sessionID] = struct{}{}
	if r.superAdminID == "" {
		r.superAdminID = sessionID
	}
	return true
}

// DemoteAdmin revokes admin from a session.
func (r *Room) DemoteAdmin(sessionID string) {
	delete(r.adminIDs, sessionID)
}

// IsAdmin reports whether the session holds admin.
func (r *Room) IsAdmin(sessionID string) bool {
	_, ok := r.adminIDs[sessionID]
	return ok
}

// IsSuperAdmin reports whether the session is the room's super admin.
func (r *Room) IsSuperAdmin(sessionID string) bool {
	return sessionID != "" && r.superAdminID == sessionID
}

// SuperAdminID returns the super admin id, or "" when the room is empty.
func (r *Room) SuperAdminID() string {
	return r.superAdminID
}

// AdminIDs returns admin ids in ascending order.
func (r *Room) AdminIDs() []string {
	ids := lo.Keys(r.adminIDs)
	slices.Sort(ids)
	return ids
}

// Member looks up a session by id.
func (r *Room) Member(sessionID string) (*Session, bool) {
	s, ok := r.members[sessionID]
	return s, ok
}

// Snapshots returns member snapshots in insertion order.
func (r *Room) Snapshots() []Snapshot {
	return lo.Map(r.order, func(id string, _ int) Snapshot { return r.members[id].Snapshot() })
}

// Len returns the number of members.
func (r *Room) Len() int {
	return len(r.order)
}

// Empty returns true if no sessions are in the room.
func (r *Room) Empty() bool {
	return len(r.order) == 0
}

// EmptySince reports when the room last became empty.
func (r *Room) EmptySince() time.Time {
	return r.emptySince
}

func (r *Room) memberByUsername(username string) *Session {
	for _, id := range r.order {
		if s := r.members[id]; s.Username == username {
			return s
		}
	}
	return nil
}
