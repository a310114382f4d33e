package telemetry

// Config holds configuration for the tracer
type Config struct {
	ServiceName    string
	ServiceVersion string

	// Enabled installs an SDK tracer provider. When false a noop provider is used.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector (host:port). Spans are only exported
	// when it is set.
	Endpoint string

	// Insecure sends spans over plain HTTP.
	Insecure bool

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns the CLI default: tracing off.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "vedic",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// ExportConfig enables tracing with spans sent to endpoint.
func ExportConfig(endpoint, version string) Config {
	cfg := DefaultConfig()
	cfg.Enabled = endpoint != ""
	cfg.Endpoint = endpoint
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}
