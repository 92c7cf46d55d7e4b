package config

import "fmt"

// Config contains process configuration for the forge server.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the API listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// MetricsAddr configures the listen address for the metrics
	// endpoint, kept off the API listener. Empty disables the metrics
	// listener entirely.
	MetricsAddr string `koanf:"metrics_addr"`

	// ReadTimeoutSeconds and WriteTimeoutSeconds bound request I/O on the
	// API listener.
	ReadTimeoutSeconds  int `koanf:"read_timeout_seconds"`
	WriteTimeoutSeconds int `koanf:"write_timeout_seconds"`

	// ShutdownGraceSeconds bounds how long in-flight requests may run
	// after a shutdown signal.
	ShutdownGraceSeconds int `koanf:"shutdown_grace_seconds"`

	// CacheSize bounds the sun position cache, in entries.
	CacheSize int `koanf:"cache_size"`

	// DaySamples sets how many instants a full-day validation sweep checks.
	DaySamples int `koanf:"day_samples"`

	// PathSamples sets how many instants a sun path query returns.
	PathSamples int `koanf:"path_samples"`

	// SitesFile optionally points at a JSON catalog of extra observing
	// sites merged over the builtin set.
	SitesFile string `koanf:"sites_file"`

	// TracingEnabled turns OpenTelemetry span export on.
	TracingEnabled bool `koanf:"tracing_enabled"`

	// TracingExporter selects the span exporter: stdout or otlp.
	TracingExporter string `koanf:"tracing_exporter"`

	// TracingEndpoint is the OTLP gRPC endpoint, used when the exporter
	// is otlp.
	TracingEndpoint string `koanf:"tracing_endpoint"`

	// TracingServiceName is reported as service.name on exported spans.
	TracingServiceName string `koanf:"tracing_service_name"`

	// TracingSampleRatio sets the parent-based trace sample ratio in [0, 1].
	TracingSampleRatio float64 `koanf:"tracing_sample_ratio"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":8080",
		MetricsAddr:          ":9090",
		ReadTimeoutSeconds:   10,
		WriteTimeoutSeconds:  30,
		ShutdownGraceSeconds: 10,
		CacheSize:            4096,
		DaySamples:           96,
		PathSamples:          96,
		TracingExporter:      "stdout",
		TracingServiceName:   "forge-server",
		TracingSampleRatio:   1.0,
	}
}

// Validate checks invariants that would otherwise surface as failures deep
// inside the server.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ReadTimeoutSeconds < 0 || c.WriteTimeoutSeconds < 0 || c.ShutdownGraceSeconds < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	}
	if c.DaySamples < 2 {
		return fmt.Errorf("%w: day_samples must be at least 2", ErrInvalidConfig)
	}
	if c.PathSamples < 2 {
		return fmt.Errorf("%w: path_samples must be at least 2", ErrInvalidConfig)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("%w: tracing_sample_ratio must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}
