package core

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// RoomInfo is a read-only directory entry for a room.
type RoomInfo struct {
	ID           string
	Name         string
	Members      int
	SuperAdminID string
}

// Registry resolves room ids to rooms, creating them lazily.
//
// It is not safe for concurrent use. One instance is owned by the Hub
// goroutine for the lifetime of the process.
type Registry struct {
	rooms map[string]*Room
	world World
	log   *zerolog.Logger
}

// NewRegistry creates an empty registry whose rooms share the given world.
func NewRegistry(world World, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		rooms: make(map[string]*Room),
		world: world,
		log:   logger,
	}
}

// GetOrCreate returns the room with the given id, creating it with the id as
// its display name if needed.
func (g *Registry) GetOrCreate(roomID string) *Room {
	if room, ok := g.rooms[roomID]; ok {
		return room
	}
	room := NewRoom(roomID, roomID, g.world, g.log)
	g.rooms[roomID] = room
	g.log.Info().Str("room_id", roomID).Msg("room created")
	return room
}

// Room looks up an existing room.
func (g *Registry) Room(roomID string) (*Room, bool) {
	room, ok := g.rooms[roomID]
	return room, ok
}

// AddUserToRoom binds s into roomID. A session bound to another room is
// removed from it first, so its old room sees USER_LEFT before the new one
// sees USER_JOINED.
func (g *Registry) AddUserToRoom(roomID string, s *Session) {
	g.JoinRoom(roomID, s, nil)
}

// JoinRoom is AddUserToRoom with an optional spawn position. The spawn is
// clamped and applied only when s is not already in roomID, after it has left
// its previous room.
func (g *Registry) JoinRoom(roomID string, s *Session, spawn *Position) {
	prev := s.roomID
	if prev != "" && prev != roomID {
		if err := g.RemoveUserFromRoom(prev, s.ID); err != nil {
			g.log.Warn().Err(err).Str("room_id", prev).Str("session_id", s.ID).Msg("leave previous room")
			s.roomID = ""
		}
	}
	if spawn != nil && prev != roomID {
		s.SetSpawn(*spawn, g.world.Bounds)
	}
	g.GetOrCreate(roomID).AddUser(s)
}

// RemoveUserFromRoom unbinds a session from roomID.
func (g *Registry) RemoveUserFromRoom(roomID, sessionID string) error {
	room, ok := g.rooms[roomID]
	if !ok {
		return fmt.Errorf("remove %s from %s: %w", sessionID, roomID, ErrRoomNotFound)
	}
	if !room.RemoveUser(sessionID) {
		return fmt.Errorf("remove %s from %s: %w", sessionID, roomID, ErrSessionNotFound)
	}
	return nil
}

// UpdatePosition forwards a move to the room.
func (g *Registry) UpdatePosition(roomID, sessionID string, p Position) error {
	room, ok := g.rooms[roomID]
	if !ok {
		return fmt.Errorf("move in %s: %w", roomID, ErrRoomNotFound)
	}
	return room.UpdatePosition(sessionID, p)
}

// SendChat forwards a chat line to the room.
func (g *Registry) SendChat(roomID, fromID, text, targetID string) error {
	room, ok := g.rooms[roomID]
	if !ok {
		return fmt.Errorf("chat in %s: %w", roomID, ErrRoomNotFound)
	}
	return room.SendChat(fromID, text, targetID)
}

// Reap deletes rooms that have been empty for at least ttl and returns their ids.
func (g *Registry) Reap(now time.Time, ttl time.Duration) []string {
	var reaped []string
	for id, room := range g.rooms {
		if room.Empty() && now.Sub(room.EmptySince()) >= ttl {
			delete(g.rooms, id)
			reaped = append(reaped, id)
		}
	}
	slices.Sort(reaped)
	for _, id := range reaped {
		g.log.Info().Str("room_id", id).Msg("empty room reaped")
	}
	return reaped
}

// Resync re-sends ROOM_STATE to every member of every room.
func (g *Registry) Resync() {
	for _, room := range g.rooms {
		room.SendState()
	}
}

// Rooms lists all rooms ordered by id.
func (g *Registry) Rooms() []RoomInfo {
	ids := lo.Keys(g.rooms)
	slices.Sort(ids)
	return lo.Map(ids, func(id string, _ int) RoomInfo {
		room := g.rooms[id]
		return RoomInfo{
			ID:           room.ID,
			Name:         room.Name,
			Members:      room.Len(),
			SuperAdminID: room.SuperAdminID(),
		}
	})
}

// Len returns the number of rooms held.
func (g *Registry) Len() int {
	return len(g.rooms)
}
