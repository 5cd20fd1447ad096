package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// HubConfig tunes the background duties of the hub.
type HubConfig struct {
	// RoomTTL is how long a room may stay empty before it is reaped. Zero keeps
	// empty rooms forever.
	RoomTTL time.Duration
	// ReapInterval is how often empty rooms are checked.
	ReapInterval time.Duration
	// ResyncInterval re-broadcasts ROOM_STATE to every member. Zero disables it.
	ResyncInterval time.Duration
	// QueueSize is the capacity of the shared command queue.
	QueueSize int
}

type roomsQuery struct {
	reply chan []RoomInfo
}

// Hub serializes every session, room and registry mutation on one goroutine.
type Hub struct {
	registry *Registry
	cfg      HubConfig

	register chan *Session
	commands chan *Command
	queries  chan roomsQuery
	done     chan struct{}

	sessions map[string]*Session
	log      *zerolog.Logger
}

// NewHub creates a hub that owns reg.
func NewHub(reg *Registry, cfg HubConfig, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.ReapInterval <= 0 {
		cfg.ReapInterval = time.Minute
	}
	hubLog := logger.With().Str("component", "hub").Logger()
	return &Hub{
		registry: reg,
		cfg:      cfg,
		register: make(chan *Session),
		commands: make(chan *Command, cfg.QueueSize),
		queries:  make(chan roomsQuery),
		done:     make(chan struct{}),
		sessions: make(map[string]*Session),
		log:      &hubLog,
	}
}

// Run processes commands until ctx is cancelled, then closes every live session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	reap := time.NewTicker(h.cfg.ReapInterval)
	defer reap.Stop()

	var resync <-chan time.Time
	if h.cfg.ResyncInterval > 0 {
		t := time.NewTicker(h.cfg.ResyncInterval)
		defer t.Stop()
		resync = t.C
	}

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case s := <-h.register:
			h.sessions[s.ID] = s
			h.log.Debug().Str("session_id", s.ID).Int("sessions", len(h.sessions)).Msg("session registered")
		case cmd := <-h.commands:
			h.route(cmd)
		case q := <-h.queries:
			q.reply <- h.registry.Rooms()
		case now := <-reap.C:
			if h.cfg.RoomTTL > 0 {
				h.registry.Reap(now, h.cfg.RoomTTL)
			}
		case <-resync:
			h.registry.Resync()
		}
	}
}

func (h *Hub) shutdown() {
	for id, s := range h.sessions {
		s.Destroy(h.registry)
		delete(h.sessions, id)
	}
	h.log.Info().Msg("hub stopped")
}

// Register makes the hub aware of a freshly attached session.
func (h *Hub) Register(ctx context.Context, s *Session) error {
	select {
	case h.register <- s:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit queues a command. It blocks only the calling connection when the
// queue is full.
func (h *Hub) Submit(ctx context.Context, cmd *Command) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.commands <- cmd:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister tears the session down on the hub goroutine. It does not depend
// on the connection context, which is usually already cancelled.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.commands <- &Command{Kind: CommandDisconnect, Session: s}:
	case <-h.done:
	}
}

// Rooms returns the room directory.
func (h *Hub) Rooms(ctx context.Context) ([]RoomInfo, error) {
	q := roomsQuery{reply: make(chan []RoomInfo, 1)}
	select {
	case h.queries <- q:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case rooms := <-q.reply:
		return rooms, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
