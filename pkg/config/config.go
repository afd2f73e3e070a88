package config

import "time"

// Config is the root configuration structure for perfscore.
// It contains the HTTP server, rule set, evidence and telemetry sections.
// Default values are listed in defaults.go.
type Config struct {
	// Server contains HTTP API server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// RuleSet selects the fuzzy rule set and how assessment inputs bind to
	// its input variables.
	RuleSet RuleSetConfig `yaml:"ruleset"`

	// Evidence contains configuration for assessment evidence recording,
	// storage and retention.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains configuration for observability including logging,
	// metrics, tracing and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of assessment request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Auth protects the /v1 endpoints with API keys. Probes, /version and
	// /metrics stay open.
	Auth AuthConfig `yaml:"auth"`

	// RateLimit throttles /v1 requests per client.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// TLS serves HTTPS instead of HTTP.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures HTTPS. Certificates are re-read when the files change,
// so renewals need no restart.
type TLSConfig struct {
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the files are checked for changes.
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// RateLimitConfig configures per-client request throttling. A client is the
// authenticated API key name, or the remote IP when auth is off.
type RateLimitConfig struct {
	// Enabled turns throttling on.
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond is the sustained rate each client may make.
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst is how many requests a client may make at once.
	Burst int `yaml:"burst"`

	// MaxConcurrent caps in-flight /v1 requests across all clients.
	// 0 means unlimited.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// AuthConfig configures API-key authentication.
type AuthConfig struct {
	// Enabled requires a valid API key on every /v1 request.
	Enabled bool `yaml:"enabled"`

	// Header carries the key. "Authorization" expects "Bearer <key>"; any
	// other header carries the raw key.
	Header string `yaml:"header"`

	// Keys lists the accepted keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the client in logs.
	Name string `yaml:"name"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// RuleSetConfig configures the fuzzy rule set.
type RuleSetConfig struct {
	// Path is the YAML rule-set file. Empty selects the embedded
	// operator-performance rule set.
	Path string `yaml:"path"`

	// OperationsInput is the input variable that receives the operation count.
	OperationsInput string `yaml:"operations_input"`

	// ErrorRateInput is the input variable that receives the error rate.
	ErrorRateInput string `yaml:"error_rate_input"`

	// Watch reloads the rule set when its file changes.
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events.
	WatchDebounce time.Duration `yaml:"watch_debounce"`
}

// EvidenceConfig contains configuration for evidence recording.
type EvidenceConfig struct {
	// Enabled controls whether assessments are recorded.
	Enabled bool `yaml:"enabled"`

	// Backend specifies the storage backend.
	// Options: "memory", "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains async recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`

	// Query contains query limits.
	Query QueryConfig `yaml:"query"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Driver selects the database/sql driver.
	// Options: "sqlite" (pure Go, modernc.org/sqlite), "sqlite3" (cgo, mattn/go-sqlite3)
	Driver string `yaml:"driver"`

	// Path is the file path for the SQLite database.
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle database connections.
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging mode.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains evidence recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing one record to storage.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain evidence records.
	// 0 keeps records forever.
	Days int `yaml:"days"`

	// MaxRecords is the maximum number of records to keep. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// QueryConfig contains query configuration.
type QueryConfig struct {
	// DefaultLimit is used when a query does not set one.
	DefaultLimit int `yaml:"default_limit"`

	// MaxLimit caps the number of records a single query returns.
	MaxLimit int `yaml:"max_limit"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for evaluation time (seconds).
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains OpenTelemetry tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe.
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe.
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout bounds each component check.
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
