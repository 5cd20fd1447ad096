package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-server/internal/auth"
	"github.com/vovakirdan/presence-server/internal/config"
	"github.com/vovakirdan/presence-server/internal/core"
	"github.com/vovakirdan/presence-server/internal/liveness"
	transporthttp "github.com/vovakirdan/presence-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	monitor         *liveness.Monitor
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	world := cfg.CoreWorld()
	registry := core.NewRegistry(world, logger)
	hub := core.NewHub(registry, core.HubConfig{
		RoomTTL:        cfg.RoomTTL,
		ReapInterval:   cfg.ReapInterval,
		ResyncInterval: cfg.ResyncInterval,
	}, logger)

	gateway := auth.NewGateway(auth.GatewayConfig{
		JWT:           JWTConfig(cfg, 0),
		World:         world,
		SendBuffer:    cfg.SendBuffer,
		DefaultAvatar: cfg.DefaultAvatar,
	}, logger)

	monitor := liveness.NewMonitor(cfg.PingInterval, logger)
	server := transporthttp.NewServer(hub, gateway, monitor, cfg, logger)

	logger.Info().
		Str("addr", cfg.Addr).
		Float64("max_x", cfg.World.MaxX).
		Float64("max_y", cfg.World.MaxY).
		Dur("ping_interval", cfg.PingInterval).
		Msg("application configured")

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		monitor:         monitor,
		log:             logger,
	}, nil
}

// JWTConfig builds the token settings shared by the gateway and the token command.
func JWTConfig(cfg *config.Config, ttl time.Duration) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      ttl,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stopBackground := context.WithCancel(context.Background())
	var bg sync.WaitGroup
	bg.Add(2)
	go func() {
		defer bg.Done()
		a.hub.Run(bgCtx)
	}()
	go func() {
		defer bg.Done()
		a.monitor.Run(bgCtx)
	}()
	defer func() {
		stopBackground()
		bg.Wait()
		a.log.Info().Msg("background workers stopped")
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- fmt.Errorf("listen: %w", err)
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Stopping the hub closes every session's socket.
		stopBackground()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-serverErr
	}
}
