package config

import (
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyNameServerDefaults(&cfg.NameServer)
	applyStorageDefaults(&cfg.Storage)
	applyClientDefaults(&cfg.Client)
	applyAdminDefaults(&cfg.Admin)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	// Apply profiling defaults
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyNameServerDefaults sets name server defaults.
func applyNameServerDefaults(cfg *NameServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = wire.NameServerPort
	}
	if cfg.Root == "" {
		cfg.Root = "storage"
	}
	if cfg.MaxServers == 0 {
		cfg.MaxServers = wire.MaxStorageServers
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 128
	}
	// ExecEnabled defaults to false: EXEC runs file contents through the
	// shell, so it stays opt-in.
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 300 * time.Millisecond
	}
	if cfg.FanoutTimeout == 0 {
		cfg.FanoutTimeout = time.Second
	}
	applyAuditDefaults(&cfg.Audit)
}

// applyAuditDefaults sets audit log rotation defaults.
func applyAuditDefaults(cfg *AuditConfig) {
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 28
	}
}

// applyStorageDefaults sets storage server defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.NameServer == "" {
		cfg.NameServer = "127.0.0.1:8080"
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.BasePort == 0 {
		cfg.BasePort = wire.StorageBasePort
	}
	if cfg.Root == "" {
		cfg.Root = "storage"
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = 128
	}
}

// applyClientDefaults sets quillctl client defaults.
func applyClientDefaults(cfg *ClientConfig) {
	if cfg.NameServer == "" {
		cfg.NameServer = "127.0.0.1:8080"
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
}

// applyAdminDefaults sets admin API server defaults.
// The admin API is disabled unless explicitly enabled; JWTSecret has no
// default because it must be chosen by the operator.
func applyAdminDefaults(cfg *AdminConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
	if cfg.TokenExpiry == 0 {
		cfg.TokenExpiry = 24 * time.Hour
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
