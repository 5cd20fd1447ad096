package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/vovakirdan/presence-server/internal/core"
	"github.com/vovakirdan/presence-server/internal/utils"
)

var (
	// ErrMissingToken is returned when a connection attempt carries no token.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken covers malformed tokens, bad signatures and bad claims.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the verified part of a token.
type Identity struct {
	Username string `validate:"required,max=64"`
	Avatar   string `validate:"omitempty,max=512"`
}

// GatewayConfig configures session construction.
type GatewayConfig struct {
	JWT           *JWTConfig
	World         core.World
	SendBuffer    int
	DefaultAvatar string
}

// Gateway verifies connection credentials and builds sessions for them.
type Gateway struct {
	cfg      GatewayConfig
	validate *validator.Validate
	newID    func() string
	base     *zerolog.Logger
	log      *zerolog.Logger
}

// NewGateway creates a gateway.
func NewGateway(cfg GatewayConfig, logger *zerolog.Logger) *Gateway {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gwLog := logger.With().Str("component", "gateway").Logger()
	return &Gateway{
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		newID:    utils.NewID,
		base:     logger,
		log:      &gwLog,
	}
}

// Authenticate verifies token and returns the identity it carries.
func (g *Gateway) Authenticate(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims, err := ValidateToken(g.cfg.JWT, token)
	if err != nil {
		g.log.Debug().Err(err).Msg("token rejected")
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id := Identity{
		Username: strings.TrimSpace(claims.Username),
		Avatar:   strings.TrimSpace(claims.Avatar),
	}
	if err := g.validate.Struct(id); err != nil {
		g.log.Debug().Err(err).Msg("token claims rejected")
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if id.Avatar == "" {
		id.Avatar = g.cfg.DefaultAvatar
	}
	return id, nil
}

// NewSession allocates a fresh session for id at a random spawn point. The
// session stays in the connecting state until a transport is attached.
func (g *Gateway) NewSession(id Identity) *core.Session {
	s := core.NewSession(g.newID(), id.Username, id.Avatar, g.cfg.World.Spawn(), g.cfg.SendBuffer, g.base)
	g.log.Info().Str("session_id", s.ID).Str("username", s.Username).Msg("session authenticated")
	return s
}
