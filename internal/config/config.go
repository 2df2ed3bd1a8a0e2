// Package config loads application configuration from environment variables.
//
// Configuration is a plain struct parsed with caarlos0/env. main.go calls
// Load() once and hands the result to the server — no package reads the
// environment on its own after startup.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every tunable of the service.
//
// The session knobs are deliberately independent: SessionTTL is the absolute
// expiry stamped into each token, SessionMaxLifetime caps how far sliding
// renewal may push a session past its original issue time, and
// SessionSliding turns renewal on or off.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/medistock.db"`

	// SessionSecret signs session tokens. Must be at least 16 characters;
	// generate with: openssl rand -hex 32
	SessionSecret      string        `env:"SESSION_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionMaxLifetime time.Duration `env:"SESSION_MAX_LIFETIME" envDefault:"12h"`
	SessionSliding     bool          `env:"SESSION_SLIDING" envDefault:"true"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleCallbackURL  string `env:"GOOGLE_CALLBACK_URL"`
	GoogleRevokeURL    string `env:"GOOGLE_REVOKE_URL" envDefault:"https://oauth2.googleapis.com/revoke"`

	// RevokeTimeout bounds the best-effort revocation call on logout;
	// ProviderTimeout bounds the code exchange + userinfo round-trip.
	RevokeTimeout   time.Duration `env:"REVOKE_TIMEOUT" envDefault:"5s"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`
}

// Load parses the environment into a Config and applies derived defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	if len(cfg.SessionSecret) < 16 {
		return Config{}, errors.New("config: SESSION_SECRET must be set to at least 16 characters")
	}

	// The callback URL depends on the port, so it can't be a static default.
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	return cfg, nil
}

// GoogleConfigured reports whether OAuth credentials are present. The server
// still starts without them, but the auth routes are not registered.
func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
