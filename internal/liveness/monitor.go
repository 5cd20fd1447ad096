package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Peer is a connection that can be pinged and forcibly closed.
type Peer interface {
	ID() string
	// Ping blocks until the peer answers or ctx is done.
	Ping(ctx context.Context) error
	// Terminate closes the connection without a handshake. It must not block.
	Terminate()
}

type tracked struct {
	peer  Peer
	alive bool
}

// Monitor terminates peers that leave a ping unanswered for a whole sweep.
type Monitor struct {
	interval time.Duration

	mu    sync.Mutex
	peers map[string]*tracked
	pings sync.WaitGroup

	log *zerolog.Logger
}

// NewMonitor creates a monitor that sweeps every interval.
func NewMonitor(interval time.Duration, logger *zerolog.Logger) *Monitor {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if interval <= 0 {
		interval = time.Minute
	}
	monLog := logger.With().Str("component", "liveness").Logger()
	return &Monitor{
		interval: interval,
		peers:    make(map[string]*tracked),
		log:      &monLog,
	}
}

// Track starts watching p. A new peer counts as alive.
func (m *Monitor) Track(p Peer) {
	m.mu.Lock()
	m.peers[p.ID()] = &tracked{peer: p, alive: true}
	m.mu.Unlock()
}

// Untrack stops watching the peer with id.
func (m *Monitor) Untrack(id string) {
	m.mu.Lock()
	delete(m.peers, id)
	m.mu.Unlock()
}

// Len reports the number of tracked peers.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.peers)
}

// Run sweeps until ctx is cancelled and waits for outstanding pings.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	defer m.pings.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep terminates every peer that did not answer the previous ping, then
// pings the rest. Pings run asynchronously and are bounded by the interval.
func (m *Monitor) Sweep(ctx context.Context) {
	var dead []Peer

	m.mu.Lock()
	for id, t := range m.peers {
		if !t.alive {
			dead = append(dead, t.peer)
			delete(m.peers, id)
			continue
		}
		t.alive = false
		m.pings.Add(1)
		go m.ping(ctx, t.peer)
	}
	m.mu.Unlock()

	for _, p := range dead {
		m.log.Info().Str("session_id", p.ID()).Msg("peer unresponsive, terminating")
		p.Terminate()
	}
}

func (m *Monitor) ping(ctx context.Context, p Peer) {
	defer m.pings.Done()

	pingCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		m.log.Debug().Err(err).Str("session_id", p.ID()).Msg("ping failed")
		return
	}

	m.mu.Lock()
	if t, ok := m.peers[p.ID()]; ok && t.peer == p {
		t.alive = true
	}
	m.mu.Unlock()
}
