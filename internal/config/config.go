package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/presence-server/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	MaxMessageBytes      int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	SendBuffer           int           `mapstructure:"send_buffer" yaml:"send_buffer" validate:"gt=0"`
	WriteTimeout         time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	MaxMessagesPerMinute int           `mapstructure:"max_messages_per_minute" yaml:"max_messages_per_minute" validate:"gte=0"`
	PingInterval         time.Duration `mapstructure:"ping_interval" yaml:"ping_interval" validate:"gt=0"`

	RoomTTL        time.Duration `mapstructure:"room_ttl" yaml:"room_ttl" validate:"gte=0"`
	ReapInterval   time.Duration `mapstructure:"reap_interval" yaml:"reap_interval" validate:"gt=0"`
	ResyncInterval time.Duration `mapstructure:"resync_interval" yaml:"resync_interval" validate:"gte=0"`

	DefaultAvatar string `mapstructure:"default_avatar" yaml:"default_avatar"`

	World    WorldConfig    `mapstructure:"world" yaml:"world"`
	Movement MovementConfig `mapstructure:"movement" yaml:"movement"`
}

// WorldConfig is the rectangle every position is clamped into.
type WorldConfig struct {
	MinX float64 `mapstructure:"min_x" yaml:"min_x"`
	MaxX float64 `mapstructure:"max_x" yaml:"max_x" validate:"gtfield=MinX"`
	MinY float64 `mapstructure:"min_y" yaml:"min_y"`
	MaxY float64 `mapstructure:"max_y" yaml:"max_y" validate:"gtfield=MinY"`
}

// MovementConfig tunes movement validation. MaxStep 0 accepts any step.
type MovementConfig struct {
	MaxStep float64 `mapstructure:"max_step" yaml:"max_step" validate:"gte=0"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	b := core.DefaultBounds()
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		LogFormat:         "console",
		MaxMessageBytes:   64 << 10,
		SendBuffer:        64,
		WriteTimeout:      5 * time.Second,
		PingInterval:      60 * time.Second,
		RoomTTL:           5 * time.Minute,
		ReapInterval:      time.Minute,
		World: WorldConfig{
			MinX: b.MinX,
			MaxX: b.MaxX,
			MinY: b.MinY,
			MaxY: b.MaxY,
		},
	}
}

// Validate reports the first set of invalid fields.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// CoreWorld converts the world and movement settings into the core model.
func (c Config) CoreWorld() core.World {
	return core.World{
		Bounds: core.Bounds{
			MinX: c.World.MinX,
			MaxX: c.World.MaxX,
			MinY: c.World.MinY,
			MaxY: c.World.MaxY,
		},
		MaxStep: c.Movement.MaxStep,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
}
