package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/presence-server/internal/core"
)

// RoomLister returns the live room directory.
type RoomLister interface {
	Rooms(ctx context.Context) ([]core.RoomInfo, error)
}

// RoomHandlers provides HTTP handlers for the room directory.
type RoomHandlers struct {
	rooms RoomLister
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(rooms RoomLister, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		rooms: rooms,
		log:   logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Members      int    `json:"members"`
	SuperAdminID string `json:"superAdminId,omitempty"`
}

// ListRooms handles listing the rooms that currently exist.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.Rooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "service unavailable"})
		return
	}

	response := lo.Map(rooms, func(r core.RoomInfo, _ int) RoomResponse {
		return RoomResponse{
			ID:           r.ID,
			Name:         r.Name,
			Members:      r.Members,
			SuperAdminID: r.SuperAdminID,
		}
	})

	h.log.Debug().Int("room_count", len(rooms)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}
