package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the realtime service.
type Config struct {
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"nimbus"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Auth
	JWTSecret string `env:"JWT_SECRET"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:""`

	// Storage
	SQLitePath string `env:"SQLITE_PATH" envDefault:"nimbus.db"`

	// Push notifications. Empty REDIS_ADDR disables push dispatch.
	RedisAddr string `env:"REDIS_ADDR" envDefault:""`
	PushQueue string `env:"PUSH_QUEUE" envDefault:"nimbus:push"`

	// Per-connection outbound queue depth. A member that falls this far
	// behind starts dropping frames.
	SendBuffer int `env:"SEND_BUFFER" envDefault:"64"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SendBuffer < 1 {
		return nil, fmt.Errorf("SEND_BUFFER must be positive")
	}

	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
