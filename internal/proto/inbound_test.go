package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Inbound
		wantErr error
	}{
		{
			name:  "join with position",
			frame: `{"type":"JOIN_ROOM","payload":{"roomId":"R1","position":{"x":150,"y":200}}}`,
			want:  JoinRoom{RoomID: "R1", Position: &Position{X: 150, Y: 200}},
		},
		{
			name:  "join without position",
			frame: `{"type":"JOIN_ROOM","payload":{"roomId":"R1"}}`,
			want:  JoinRoom{RoomID: "R1"},
		},
		{
			name:  "join with empty room id decodes",
			frame: `{"type":"JOIN_ROOM","payload":{}}`,
			want:  JoinRoom{},
		},
		{
			name:  "leave without payload",
			frame: `{"type":"LEAVE_ROOM"}`,
			want:  LeaveRoom{},
		},
		{
			name:  "leave ignores payload",
			frame: `{"type":"LEAVE_ROOM","payload":"whatever"}`,
			want:  LeaveRoom{},
		},
		{
			name:  "movement",
			frame: `{"type":"MOVEMENT","payload":{"position":{"x":1.5,"y":2}}}`,
			want:  Movement{Position: &Position{X: 1.5, Y: 2}},
		},
		{
			name:  "movement without position decodes",
			frame: `{"type":"MOVEMENT","payload":{}}`,
			want:  Movement{},
		},
		{
			name:  "room chat",
			frame: `{"type":"CHAT","payload":{"message":"hi"}}`,
			want:  Chat{Message: "hi"},
		},
		{
			name:  "private chat",
			frame: `{"type":"CHAT","payload":{"message":"psst","userId":"u2"}}`,
			want:  Chat{Message: "psst", UserID: "u2"},
		},
		{name: "not json", frame: `not json`, wantErr: ErrInvalidFormat},
		{name: "null frame", frame: `null`, wantErr: ErrInvalidFormat},
		{name: "array frame", frame: `[1,2]`, wantErr: ErrInvalidFormat},
		{name: "empty frame", frame: ``, wantErr: ErrInvalidFormat},
		{name: "unknown type", frame: `{"type":"DANCE","payload":{}}`, wantErr: ErrUnknownType},
		{name: "missing type", frame: `{"payload":{}}`, wantErr: ErrUnknownType},
		{name: "type is not a string", frame: `{"type":7}`, wantErr: ErrInvalidFormat},
		{name: "join without payload", frame: `{"type":"JOIN_ROOM"}`, wantErr: ErrInvalidFormat},
		{name: "join with null payload", frame: `{"type":"JOIN_ROOM","payload":null}`, wantErr: ErrInvalidFormat},
		{name: "movement with bad position", frame: `{"type":"MOVEMENT","payload":{"position":{"x":"a"}}}`, wantErr: ErrInvalidFormat},
		{name: "chat with wrong field type", frame: `{"type":"CHAT","payload":{"message":5}}`, wantErr: ErrInvalidFormat},
		{name: "chat with string payload", frame: `{"type":"CHAT","payload":"hi"}`, wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.frame))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutboundEncoding(t *testing.T) {
	out := Encode(OutboundTypeRoomState, RoomStatePayload{
		Users: []UserSnapshot{
			{ID: "u1", Username: "alice", Position: Position{X: 100, Y: 120}, RoomID: "R1"},
		},
		RoomID:        "R1",
		CurrentUserID: "u1",
	})

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type":"ROOM_STATE",
		"payload":{
			"users":[{"id":"u1","username":"alice","position":{"x":100,"y":120},"roomId":"R1"}],
			"roomId":"R1",
			"currentUserId":"u1"
		}
	}`, string(data))
}

func TestErrorEncoding(t *testing.T) {
	data, err := json.Marshal(Encode(OutboundTypeError, ErrorPayload{Error: "Unknown message type"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ERROR","payload":{"error":"Unknown message type"}}`, string(data))
}
