package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. validator.New is expensive,
// so it is created once and reused across Validate calls.
var validate = validator.New()

// Validate checks the configuration for correctness.
//
// Structural rules (required fields, value ranges, enumerations) come from
// the `validate` struct tags. Rules that span more than one field are
// checked explicitly afterwards.
//
// Validate does not modify the configuration; normalization (such as
// uppercasing the log level) happens in ApplyDefaults.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	// Telemetry needs a collector endpoint when enabled.
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry is enabled but no endpoint is configured")
	}

	// Profiling needs a Pyroscope endpoint when enabled.
	if cfg.Telemetry.Profiling.Enabled && cfg.Telemetry.Profiling.Endpoint == "" {
		return fmt.Errorf("profiling is enabled but no endpoint is configured")
	}

	// The admin API signs tokens with HS256; short secrets are guessable.
	if cfg.Admin.Enabled {
		if cfg.Admin.JWTSecret == "" {
			return fmt.Errorf("admin API is enabled but no jwt_secret is configured")
		}
		if len(cfg.Admin.JWTSecret) < 32 {
			return fmt.Errorf("admin jwt_secret must be at least 32 characters, got %d", len(cfg.Admin.JWTSecret))
		}
	}

	return nil
}
