package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "PERFSCORE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default, remaining zero values get their
// defaults and the result is validated. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of the defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies environment
// variable overrides. Variables follow the convention PERFSCORE_SECTION_FIELD
// (e.g. PERFSCORE_SERVER_LISTEN_ADDRESS) and take precedence over the file.
//
// An empty path skips the file and starts from Default.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies PERFSCORE_* overrides. Malformed values are
// reported as field errors rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	env := envReader{}

	// Server overrides
	env.str("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	env.duration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	env.duration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	env.duration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	env.boolean("SERVER_AUTH_ENABLED", &cfg.Server.Auth.Enabled)
	env.str("SERVER_AUTH_HEADER", &cfg.Server.Auth.Header)
	env.boolean("SERVER_RATE_LIMIT_ENABLED", &cfg.Server.RateLimit.Enabled)
	env.float("SERVER_RATE_LIMIT_REQUESTS_PER_SECOND", &cfg.Server.RateLimit.RequestsPerSecond)
	env.integer("SERVER_RATE_LIMIT_BURST", &cfg.Server.RateLimit.Burst)
	env.boolean("SERVER_TLS_ENABLED", &cfg.Server.TLS.Enabled)
	env.str("SERVER_TLS_CERT_FILE", &cfg.Server.TLS.CertFile)
	env.str("SERVER_TLS_KEY_FILE", &cfg.Server.TLS.KeyFile)

	// Rule set overrides
	env.str("RULESET_PATH", &cfg.RuleSet.Path)
	env.str("RULESET_OPERATIONS_INPUT", &cfg.RuleSet.OperationsInput)
	env.str("RULESET_ERROR_RATE_INPUT", &cfg.RuleSet.ErrorRateInput)
	env.boolean("RULESET_WATCH", &cfg.RuleSet.Watch)

	// Evidence overrides
	env.boolean("EVIDENCE_ENABLED", &cfg.Evidence.Enabled)
	env.str("EVIDENCE_BACKEND", &cfg.Evidence.Backend)
	env.str("EVIDENCE_SQLITE_DRIVER", &cfg.Evidence.SQLite.Driver)
	env.str("EVIDENCE_SQLITE_PATH", &cfg.Evidence.SQLite.Path)
	env.integer("EVIDENCE_RETENTION_DAYS", &cfg.Evidence.Retention.Days)
	env.str("EVIDENCE_RETENTION_PRUNE_SCHEDULE", &cfg.Evidence.Retention.PruneSchedule)

	// Telemetry overrides
	env.str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	env.str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	env.boolean("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	env.str("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	env.boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	env.str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	env.str("TELEMETRY_TRACING_SAMPLER", &cfg.Telemetry.Tracing.Sampler)
	env.float("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)

	if len(env.errs) > 0 {
		return ValidationError{Errors: env.errs}
	}
	return nil
}

// envReader reads typed PERFSCORE_* variables and collects parse failures.
type envReader struct {
	errs []FieldError
}

func (r *envReader) lookup(name string) (string, bool) {
	val := os.Getenv(EnvPrefix + name)
	return val, val != ""
}

func (r *envReader) fail(name, val string, err error) {
	r.errs = append(r.errs, FieldError{
		Field:   EnvPrefix + name,
		Message: fmt.Sprintf("invalid value %q: %v", val, err),
	})
}

func (r *envReader) str(name string, dst *string) {
	if val, ok := r.lookup(name); ok {
		*dst = val
	}
}

func (r *envReader) boolean(name string, dst *bool) {
	if val, ok := r.lookup(name); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = b
	}
}

func (r *envReader) integer(name string, dst *int) {
	if val, ok := r.lookup(name); ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = i
	}
}

func (r *envReader) float(name string, dst *float64) {
	if val, ok := r.lookup(name); ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = f
	}
}

func (r *envReader) duration(name string, dst *time.Duration) {
	if val, ok := r.lookup(name); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			r.fail(name, val, err)
			return
		}
		*dst = d
	}
}
