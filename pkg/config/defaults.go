package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(65536)
	DefaultAuthHeader      = "Authorization"
	DefaultRateLimitRPS    = 50.0
	DefaultRateLimitBurst  = 100
	DefaultTLSMinVersion   = "1.3"
	DefaultTLSReload       = 5 * time.Minute

	// Rule set defaults
	DefaultOperationsInput = "operations"
	DefaultErrorRateInput  = "error_rate"
	DefaultWatchDebounce   = 250 * time.Millisecond

	// Evidence defaults
	DefaultEvidenceEnabled              = true
	DefaultEvidenceBackend              = "sqlite"
	DefaultEvidenceSQLiteDriver         = "sqlite"
	DefaultEvidenceSQLitePath           = "data/evidence.db"
	DefaultEvidenceSQLiteMaxOpenConns   = 10
	DefaultEvidenceSQLiteMaxIdleConns   = 5
	DefaultEvidenceSQLiteWALMode        = true
	DefaultEvidenceSQLiteBusyTimeout    = 5 * time.Second
	DefaultEvidenceRecorderAsyncBuffer  = 1000
	DefaultEvidenceRecorderWriteTimeout = 5 * time.Second
	DefaultEvidenceRetentionDays        = 90
	DefaultEvidenceRetentionSchedule    = "0 3 * * *"
	DefaultEvidenceQueryDefaultLimit    = 100
	DefaultEvidenceQueryMaxLimit        = 10000

	// Telemetry defaults
	DefaultLoggingLevel    = "info"
	DefaultLoggingFormat   = "json"
	DefaultMetricsEnabled  = true
	DefaultMetricsPath     = "/metrics"
	DefaultNamespace       = "perfscore"
	DefaultSubsystem       = "assessment"
	DefaultTracingSampler  = "ratio"
	DefaultSampleRatio     = 0.1
	DefaultServiceName     = "perfscore"
	DefaultTracingInsecure = true
	DefaultTracingTimeout  = 10 * time.Second
	DefaultLivenessPath    = "/health"
	DefaultReadinessPath   = "/ready"
	DefaultCheckTimeout    = 5 * time.Second
)

// DefaultDurationBuckets are histogram buckets for evaluation time in seconds.
// Evaluations are sub-millisecond, so the buckets start at 10µs.
var DefaultDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05}

// Default returns a configuration with every field set to its default.
// Fields whose zero value is meaningful (true booleans, retention days)
// are only set here, so YAML is decoded on top of this value rather than
// on a zero Config.
func Default() *Config {
	cfg := &Config{}
	cfg.Evidence.Enabled = DefaultEvidenceEnabled
	cfg.Evidence.SQLite.WALMode = DefaultEvidenceSQLiteWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	cfg.Evidence.Retention.Days = DefaultEvidenceRetentionDays
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued field with its default.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAuthHeader
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReload
	}

	// Rule set defaults
	if cfg.RuleSet.OperationsInput == "" {
		cfg.RuleSet.OperationsInput = DefaultOperationsInput
	}
	if cfg.RuleSet.ErrorRateInput == "" {
		cfg.RuleSet.ErrorRateInput = DefaultErrorRateInput
	}
	if cfg.RuleSet.WatchDebounce == 0 {
		cfg.RuleSet.WatchDebounce = DefaultWatchDebounce
	}

	// Evidence defaults
	if cfg.Evidence.Backend == "" {
		cfg.Evidence.Backend = DefaultEvidenceBackend
	}
	if cfg.Evidence.SQLite.Driver == "" {
		cfg.Evidence.SQLite.Driver = DefaultEvidenceSQLiteDriver
	}
	if cfg.Evidence.SQLite.Path == "" {
		cfg.Evidence.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if cfg.Evidence.SQLite.MaxOpenConns == 0 {
		cfg.Evidence.SQLite.MaxOpenConns = DefaultEvidenceSQLiteMaxOpenConns
	}
	if cfg.Evidence.SQLite.MaxIdleConns == 0 {
		cfg.Evidence.SQLite.MaxIdleConns = DefaultEvidenceSQLiteMaxIdleConns
	}
	if cfg.Evidence.SQLite.BusyTimeout == 0 {
		cfg.Evidence.SQLite.BusyTimeout = DefaultEvidenceSQLiteBusyTimeout
	}
	if cfg.Evidence.Recorder.AsyncBuffer == 0 {
		cfg.Evidence.Recorder.AsyncBuffer = DefaultEvidenceRecorderAsyncBuffer
	}
	if cfg.Evidence.Recorder.WriteTimeout == 0 {
		cfg.Evidence.Recorder.WriteTimeout = DefaultEvidenceRecorderWriteTimeout
	}
	if cfg.Evidence.Retention.PruneSchedule == "" {
		cfg.Evidence.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
	if cfg.Evidence.Query.DefaultLimit == 0 {
		cfg.Evidence.Query.DefaultLimit = DefaultEvidenceQueryDefaultLimit
	}
	if cfg.Evidence.Query.MaxLimit == 0 {
		cfg.Evidence.Query.MaxLimit = DefaultEvidenceQueryMaxLimit
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == "ratio" {
		cfg.Telemetry.Tracing.SampleRatio = DefaultSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultCheckTimeout
	}
}
