package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-server/internal/auth"
	"github.com/vovakirdan/presence-server/internal/config"
	"github.com/vovakirdan/presence-server/internal/core"
)

// NewServer builds an HTTP server with the health, directory and WebSocket
// routes. tracker may be nil to disable liveness checks.
func NewServer(hub *core.Hub, gateway *auth.Gateway, tracker PeerTracker, cfg *config.Config, logger *zerolog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	requireToken := TokenMiddleware(gateway, logger)

	ws := NewWSHandler(hub, gateway, tracker, WSConfig{
		MaxMessageBytes:      cfg.MaxMessageBytes,
		WriteTimeout:         cfg.WriteTimeout,
		MaxMessagesPerMinute: cfg.MaxMessagesPerMinute,
	}, logger)
	router.GET("/ws", requireToken, ws.Handle)

	api := router.Group("/api", requireToken)
	rooms := NewRoomHandlers(hub, logger)
	api.GET("/rooms", rooms.ListRooms)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
