package telemetry

// Config selects the trace backend. The zero Endpoint pairs with a
// local OTLP collector; production points it elsewhere.
type Config struct {
	Enabled bool

	// ServiceName and ServiceVersion identify the process on spans.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector, host:port.
	Endpoint string

	// Insecure disables TLS toward the collector.
	Insecure bool

	// SampleRate keeps this fraction of traces; 1.0 keeps all.
	SampleRate float64
}

// DefaultConfig is tracing-off against a local collector.
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "quillfs",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
