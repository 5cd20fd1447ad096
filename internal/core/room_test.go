package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRoomJoinSequence(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)

	a, _ := newTestSession("a", "alice")
	room.AddUser(a)

	evs := pending(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventRoomState, evs[0].Kind)
	assert.Equal(t, "R1", evs[0].Room)
	assert.Equal(t, "a", evs[0].CurrentUserID)
	require.Len(t, evs[0].Users, 1)
	assert.Equal(t, "a", evs[0].Users[0].ID)
	assert.Equal(t, "R1", a.RoomID())
	assert.True(t, room.IsSuperAdmin("a"))

	b, _ := newTestSession("b", "bob")
	room.AddUser(b)

	bEvs := pending(b)
	require.Len(t, bEvs, 1)
	assert.Equal(t, EventRoomState, bEvs[0].Kind)
	require.Len(t, bEvs[0].Users, 2)
	assert.Equal(t, "a", bEvs[0].Users[0].ID)
	assert.Equal(t, "b", bEvs[0].Users[1].ID)

	aEvs := pending(a)
	require.Len(t, aEvs, 1)
	assert.Equal(t, EventUserJoined, aEvs[0].Kind)
	require.NotNil(t, aEvs[0].User)
	assert.Equal(t, "b", aEvs[0].User.ID)
	assert.Equal(t, "R1", aEvs[0].User.RoomID)
}

func TestRoomAddSameSessionTwiceIsNoop(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(a)
	room.AddUser(b)
	drain(a)
	drain(b)

	room.AddUser(a)

	assert.Equal(t, 2, room.Len())
	assert.Empty(t, pending(a))
	assert.Empty(t, pending(b))
}

func TestRoomRemoveUser(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(a)
	room.AddUser(b)
	drain(a)
	drain(b)

	assert.True(t, room.RemoveUser("b"))
	assert.Equal(t, "", b.RoomID())
	assert.Empty(t, pending(b))

	evs := pending(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventUserLeft, evs[0].Kind)
	assert.Equal(t, "b", evs[0].User.ID)
	assert.Equal(t, "R1", evs[0].Room)

	assert.False(t, room.RemoveUser("b"))
	assert.False(t, room.RemoveUser("ghost"))
	assert.Equal(t, 1, room.Len())
}

func TestRoomEmptySinceTracksLastDeparture(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	room.now = func() time.Time { return clock }

	a, _ := newTestSession("a", "alice")
	room.AddUser(a)
	assert.False(t, room.Empty())

	clock = clock.Add(time.Hour)
	room.RemoveUser("a")
	assert.True(t, room.Empty())
	assert.Equal(t, clock, room.EmptySince())
}

func TestRoomSuperAdminSuccession(t *testing.T) {
	tests := []struct {
		name    string
		admins  []string
		remove  []string
		wantSA  string
		members []string
	}{
		{
			name:    "falls back to longest present member",
			members: []string{"a", "b", "c"},
			remove:  []string{"a"},
			wantSA:  "b",
		},
		{
			name:    "prefers lowest admin id",
			members: []string{"a", "b", "c", "d"},
			admins:  []string{"d", "c"},
			remove:  []string{"a"},
			wantSA:  "c",
		},
		{
			name:    "admin departing is dropped from admin set",
			members: []string{"a", "b", "c"},
			admins:  []string{"b"},
			remove:  []string{"b", "a"},
			wantSA:  "c",
		},
		{
			name:    "empty room has no super admin",
			members: []string{"a"},
			remove:  []string{"a"},
			wantSA:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := NewRoom("R", "R", DefaultWorld(), nil)
			for _, id := range tt.members {
				s, _ := newTestSession(id, "user-"+id)
				room.AddUser(s)
			}
			for _, id := range tt.admins {
				require.True(t, room.SetAdmin(id))
			}
			for _, id := range tt.remove {
				room.RemoveUser(id)
			}
			assert.Equal(t, tt.wantSA, room.SuperAdminID())
		})
	}
}

func TestRoomAdminOperations(t *testing.T) {
	room := NewRoom("R", "R", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(a)
	room.AddUser(b)

	assert.False(t, room.SetAdmin("ghost"))
	assert.True(t, room.SetAdmin("b"))
	assert.True(t, room.IsAdmin("b"))
	assert.False(t, room.IsAdmin("a"))
	assert.True(t, room.IsSuperAdmin("a"))
	assert.False(t, room.IsSuperAdmin("b"))
	assert.Equal(t, []string{"b"}, room.AdminIDs())

	room.DemoteAdmin("b")
	assert.False(t, room.IsAdmin("b"))
	assert.Empty(t, room.AdminIDs())
}

func TestRoomReconnectEvictsStaleSession(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	stale, staleTr := newTestSession("a1", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(stale)
	room.AddUser(b)
	drain(stale)
	drain(b)

	fresh, _ := newTestSession("a2", "alice")
	room.AddUser(fresh)

	assert.Equal(t, 2, room.Len())
	_, stillThere := room.Member("a1")
	assert.False(t, stillThere)
	assert.Equal(t, "", stale.RoomID())
	assert.Zero(t, staleTr.closed)

	// The new session inherits the super admin seat of the one it replaced.
	assert.True(t, room.IsSuperAdmin("a2"))

	// Neither USER_LEFT nor USER_JOINED is announced for a reconnect.
	assert.Empty(t, pending(b))
	assert.Empty(t, pending(stale))

	evs := pending(fresh)
	require.Len(t, evs, 1)
	assert.Equal(t, EventRoomState, evs[0].Kind)
	ids := []string{evs[0].Users[0].ID, evs[0].Users[1].ID}
	assert.Equal(t, []string{"b", "a2"}, ids)
}

func TestRoomReconnectInheritsAdmin(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	owner, _ := newTestSession("o", "owner")
	stale, _ := newTestSession("a1", "alice")
	room.AddUser(owner)
	room.AddUser(stale)
	room.SetAdmin("a1")

	fresh, _ := newTestSession("a2", "alice")
	room.AddUser(fresh)

	assert.True(t, room.IsAdmin("a2"))
	assert.False(t, room.IsAdmin("a1"))
	assert.True(t, room.IsSuperAdmin("o"))
}

func TestRoomMovementBroadcastsClampedEchoToEveryone(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(a)
	room.AddUser(b)
	drain(a)
	drain(b)

	require.NoError(t, room.UpdatePosition("a", Position{X: 5000, Y: 300}))

	want := Position{X: 780, Y: 300}
	for _, s := range []*Session{a, b} {
		evs := pending(s)
		require.Len(t, evs, 1, "session %s", s.ID)
		assert.Equal(t, EventMovement, evs[0].Kind)
		assert.Equal(t, "a", evs[0].UserID)
		assert.Equal(t, want, evs[0].Position)
		assert.Equal(t, "R1", evs[0].Room)
	}
	assert.Equal(t, want, a.Position())
}

func TestRoomMovementRejectedGoesToMoverOnly(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	room.AddUser(a)
	room.AddUser(b)
	require.NoError(t, room.UpdatePosition("a", Position{X: 780, Y: 300}))
	drain(a)
	drain(b)

	// Clamps to the current position, so nothing changes.
	require.NoError(t, room.UpdatePosition("a", Position{X: 9000, Y: 300}))

	evs := pending(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventMovementRejected, evs[0].Kind)
	assert.Equal(t, MsgMovementRejected, evs[0].Error.Message)
	assert.Equal(t, Position{X: 780, Y: 300}, evs[0].Position)
	assert.Empty(t, pending(b))
}

func TestRoomMovementUnknownSession(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	assert.ErrorIs(t, room.UpdatePosition("ghost", Position{X: 50, Y: 50}), ErrSessionNotFound)
}

func TestRoomStrictMovement(t *testing.T) {
	room := NewRoom("R1", "R1", World{Bounds: DefaultBounds(), MaxStep: 40}, nil)
	a, _ := newTestSession("a", "alice")
	room.AddUser(a)
	drain(a)

	require.NoError(t, room.UpdatePosition("a", Position{X: 300, Y: 100}))
	evs := pending(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventMovementRejected, evs[0].Kind)
	assert.Equal(t, Position{X: 100, Y: 100}, a.Position())

	require.NoError(t, room.UpdatePosition("a", Position{X: 130, Y: 100}))
	evs = pending(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventMovement, evs[0].Kind)
}

func TestRoomChat(t *testing.T) {
	room := NewRoom("R1", "R1", DefaultWorld(), nil)
	a, _ := newTestSession("a", "alice")
	b, _ := newTestSession("b", "bob")
	c, _ := newTestSession("c", "carol")
	for _, s := range []*Session{a, b, c} {
		room.AddUser(s)
	}
	for _, s := range []*Session{a, b, c} {
		drain(s)
	}

	t.Run("broadcast skips sender", func(t *testing.T) {
		require.NoError(t, room.SendChat("a", "hello", ""))
		assert.Empty(t, pending(a))
		for _, s := range []*Session{b, c} {
			evs := pending(s)
			require.Len(t, evs, 1)
			assert.Equal(t, EventChat, evs[0].Kind)
			assert.Equal(t, "a", evs[0].From)
			assert.Equal(t, "hello", evs[0].Text)
		}
	})

	t.Run("private reaches target only", func(t *testing.T) {
		require.NoError(t, room.SendChat("a", "psst", "c"))
		assert.Empty(t, pending(a))
		assert.Empty(t, pending(b))
		evs := pending(c)
		require.Len(t, evs, 1)
		assert.Equal(t, "psst", evs[0].Text)
	})

	t.Run("private to absent member is dropped", func(t *testing.T) {
		require.NoError(t, room.SendChat("a", "anyone?", "ghost"))
		for _, s := range []*Session{a, b, c} {
			assert.Empty(t, pending(s))
		}
	})

	t.Run("unknown sender", func(t *testing.T) {
		assert.ErrorIs(t, room.SendChat("ghost", "hi", ""), ErrSessionNotFound)
	})
}

func TestRoomMembershipInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		room := NewRoom("R", "R", DefaultWorld(), nil)
		sessions := make(map[string]*Session)
		expected := make(map[string]bool)

		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 60).Draw(t, "ops")
		for i, op := range ops {
			id := fmt.Sprintf("s%d", rapid.IntRange(0, 7).Draw(t, fmt.Sprintf("id%d", i)))
			switch op {
			case 0, 1:
				s, ok := sessions[id]
				if !ok {
					s, _ = newTestSession(id, "user-"+id)
					sessions[id] = s
				}
				room.AddUser(s)
				expected[id] = true
			case 2:
				room.RemoveUser(id)
				delete(expected, id)
			case 3:
				room.SetAdmin(id)
			}
			for _, s := range sessions {
				drain(s)
			}

			if room.Len() != len(expected) {
				t.Fatalf("len = %d, want %d", room.Len(), len(expected))
			}
			sa := room.SuperAdminID()
			if room.Empty() != (sa == "") {
				t.Fatalf("super admin %q with %d members", sa, room.Len())
			}
			if sa != "" {
				if _, ok := room.Member(sa); !ok {
					t.Fatalf("super admin %q is not a member", sa)
				}
			}
			for _, admin := range room.AdminIDs() {
				if _, ok := room.Member(admin); !ok {
					t.Fatalf("admin %q is not a member", admin)
				}
			}
		}
	})
}
