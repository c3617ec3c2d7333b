// Package admin serves the read-mostly HTTP API of the name server:
// health probes, Prometheus metrics, and a JWT-gated JSON view of the
// registry, the file index, and the users oracle.
package admin

import (
	"os"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
)

// EnvAdminSecret is the name of the environment variable for the admin
// API's JWT signing secret.
const EnvAdminSecret = "QUILLFS_ADMIN_SECRET"

// Config configures the admin HTTP server.
//
// The admin plane is off by default; the name server answers only the
// text protocol until admin.enabled is set.
type Config struct {
	// Enabled starts the admin HTTP server alongside the TCP listener.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Host is the bind address for the admin listener.
	// Default: "" (all interfaces)
	Host string `mapstructure:"host"`

	// Port is the HTTP port for the admin endpoints.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero or negative value means no timeout.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. A zero or negative value means no timeout.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// JWT configures bearer token authentication for /api/v1 endpoints.
	JWT JWTConfig `mapstructure:"jwt"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key for JWT tokens. Must be at least 32
	// characters long. Can also be set via the QUILLFS_ADMIN_SECRET
	// environment variable, which takes precedence over the config file.
	Secret string `mapstructure:"secret"`

	// TokenDuration is the lifetime of issued tokens.
	// Default: 24h
	TokenDuration time.Duration `mapstructure:"token_duration"`
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 9090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.TokenDuration == 0 {
		c.JWT.TokenDuration = 24 * time.Hour
	}
}

// GetJWTSecret returns the JWT secret, preferring the environment
// variable. Returns empty string if neither is set. Logs a warning when
// the environment variable overrides a config file value.
func (c *Config) GetJWTSecret() string {
	envSecret := os.Getenv(EnvAdminSecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvAdminSecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// HasJWTSecret returns whether a JWT secret is configured.
func (c *Config) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
