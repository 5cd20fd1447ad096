package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-server/internal/auth"
	"github.com/vovakirdan/presence-server/internal/core"
	"github.com/vovakirdan/presence-server/internal/liveness"
)

// SessionFactory builds a session for a verified identity.
type SessionFactory interface {
	NewSession(id auth.Identity) *core.Session
}

// PeerTracker watches connection liveness.
type PeerTracker interface {
	Track(p liveness.Peer)
	Untrack(id string)
}

// WSConfig tunes every upgraded connection.
type WSConfig struct {
	MaxMessageBytes      int64
	WriteTimeout         time.Duration
	MaxMessagesPerMinute int
}

// WSHandler upgrades authenticated HTTP connections and bridges them to the hub.
type WSHandler struct {
	hub      *core.Hub
	sessions SessionFactory
	tracker  PeerTracker
	cfg      WSConfig
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. tracker may be nil.
func NewWSHandler(hub *core.Hub, sessions SessionFactory, tracker PeerTracker, cfg WSConfig, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, sessions: sessions, tracker: tracker, cfg: cfg, log: logger}
}

// wsPeer adapts a websocket connection to core.Transport and the liveness peer.
type wsPeer struct {
	id   string
	conn *websocket.Conn
}

func (p *wsPeer) ID() string { return p.id }

func (p *wsPeer) Ping(ctx context.Context) error { return p.conn.Ping(ctx) }

func (p *wsPeer) Terminate() { _ = p.conn.CloseNow() }

// Close starts the closing handshake without waiting for it.
func (p *wsPeer) Close() error {
	go func() { _ = p.conn.Close(websocket.StatusGoingAway, "session closed") }()
	return nil
}

// Handle serves GET /ws. TokenMiddleware has already verified the caller.
func (h *WSHandler) Handle(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	// gin's writer refuses to hijack once Accept has flushed the 101 header,
	// so the upgrade goes through the underlying writer.
	var w http.ResponseWriter = c.Writer
	if u, ok := w.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}
	conn, err := websocket.Accept(w, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session := h.sessions.NewSession(identity)
	peer := &wsPeer{id: session.ID, conn: conn}
	session.Attach(peer)
	logger := h.log.With().Str("session_id", session.ID).Str("username", session.Username).Logger()

	if err := h.hub.Register(ctx, session); err != nil {
		logger.Warn().Err(err).Msg("register session")
		conn.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	if h.tracker != nil {
		h.tracker.Track(peer)
	}
	logger.Info().Msg("session connected")

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, &logger)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session, &logger)
	}()

	err = <-errCh
	cancel()
	<-errCh

	if h.tracker != nil {
		h.tracker.Untrack(session.ID)
	}
	h.hub.Unregister(session)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			logger.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	logger.Info().Msg("session closed")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, s *core.Session, logger *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.MaxMessagesPerMinute)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			logger.Debug().Err(err).Msg("read ws frame")
			return err
		}

		var cmd *core.Command
		if limiter.allow() {
			cmd = frameToCommand(s, data)
		} else {
			logger.Debug().Msg("rate limit exceeded")
			cmd = &core.Command{Kind: core.CommandReject, Session: s, Error: core.ProtocolError(core.MsgRateLimited)}
		}
		if err := h.hub.Submit(ctx, cmd); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, s *core.Session, logger *zerolog.Logger) error {
	for {
		select {
		case event := <-s.Events():
			if err := h.write(ctx, conn, event); err != nil {
				logger.Debug().Err(err).Stringer("event", event.Kind).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, event *core.Event) error {
	if h.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.WriteTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, conn, outboundFromEvent(event))
}
