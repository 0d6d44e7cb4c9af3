package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all environment-supplied settings.
type Config struct {
	// Secret signs bearer tokens. The process refuses to start when it is
	// absent or shorter than 32 bytes.
	Secret string `env:"INDHIVE_AUTH_SECRET"`

	// DSN is the Postgres connection string. When empty the server runs on
	// in-memory stores (local development only; revocations then do not
	// survive a restart).
	DSN string `env:"INDHIVE_PG_DSN"`

	Addr     string        `env:"INDHIVE_ADDR" envDefault:":8080"`
	TokenTTL time.Duration `env:"INDHIVE_TOKEN_TTL" envDefault:"24h"`
	ResetURL string        `env:"INDHIVE_RESET_URL" envDefault:"http://localhost:3000/reset-password"`

	RateBurst  int `env:"INDHIVE_RATE_BURST" envDefault:"20"`
	RatePerSec int `env:"INDHIVE_RATE_PER_SEC" envDefault:"10"`

	// Optional first admin account, created at startup if missing.
	SeedAdminEmail    string `env:"INDHIVE_SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"INDHIVE_SEED_ADMIN_PASSWORD"`
}

// Load parses configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
