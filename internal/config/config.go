// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the operator-tunable settings of the service.
type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	CatalogueDir  string `env:"CATALOGUE_DIR" envDefault:"./data"`
	SessionTTLSec int    `env:"SESSION_TTL_SECONDS" envDefault:"7200"`
	TurnTimeoutMS int    `env:"TURN_TIMEOUT_MS" envDefault:"500"`
	RedisAddr     string `env:"REDIS_ADDR"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// SessionTTL returns the idle TTL as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSec) * time.Second
}

// TurnTimeout returns the per-turn compute budget as a duration.
func (c Config) TurnTimeout() time.Duration {
	return time.Duration(c.TurnTimeoutMS) * time.Millisecond
}
