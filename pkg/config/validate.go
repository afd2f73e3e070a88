package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateRuleSet(&cfg.RuleSet)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.ReadTimeout},
		{"server.write_timeout", cfg.WriteTimeout},
		{"server.idle_timeout", cfg.IdleTimeout},
		{"server.shutdown_timeout", cfg.ShutdownTimeout},
	}
	for _, to := range timeouts {
		if to.value < 0 {
			errs = append(errs, FieldError{Field: to.field, Message: "timeout must be positive"})
		}
	}

	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_header_bytes",
			Message: "max header bytes must be non-negative",
		})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be non-negative",
		})
	}

	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	return append(errs, validateTLS(&cfg.TLS)...)
}

func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError
	switch cfg.MinVersion {
	case "", "1.2", "1.3":
	default:
		errs = append(errs, FieldError{
			Field:   "server.tls.min_version",
			Message: fmt.Sprintf("unsupported TLS version %q (want 1.2 or 1.3)", cfg.MinVersion),
		})
	}
	if cfg.ReloadInterval < 0 {
		errs = append(errs, FieldError{Field: "server.tls.reload_interval", Message: "interval must be positive"})
	}
	if !cfg.Enabled {
		return errs
	}
	if cfg.CertFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "certificate file is required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "key file is required when TLS is enabled"})
	}
	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError
	if cfg.RequestsPerSecond < 0 {
		errs = append(errs, FieldError{
			Field:   "server.rate_limit.requests_per_second",
			Message: "rate must be positive",
		})
	}
	if cfg.Burst < 0 {
		errs = append(errs, FieldError{
			Field:   "server.rate_limit.burst",
			Message: "burst must be positive",
		})
	}
	if cfg.MaxConcurrent < 0 {
		errs = append(errs, FieldError{
			Field:   "server.rate_limit.max_concurrent",
			Message: "max concurrent must be non-negative",
		})
	}
	return errs
}

// validateAuth validates API-key configuration. Keys are checked even when
// auth is disabled so that a bad list is caught before it is switched on.
func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	enabled := 0
	seen := make(map[string]bool, len(cfg.Keys))
	for i, k := range cfg.Keys {
		field := fmt.Sprintf("server.auth.keys[%d]", i)
		if k.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "key name is required"})
		}
		if k.Key == "" {
			errs = append(errs, FieldError{Field: field + ".key", Message: "key value is required"})
			continue
		}
		if seen[k.Key] {
			errs = append(errs, FieldError{Field: field + ".key", Message: fmt.Sprintf("duplicate key (named %q)", k.Name)})
		}
		seen[k.Key] = true
		if !k.Disabled {
			enabled++
		}
	}

	if cfg.Enabled && enabled == 0 {
		errs = append(errs, FieldError{
			Field:   "server.auth.keys",
			Message: "auth is enabled but no key is enabled",
		})
	}
	return errs
}

// validateRuleSet validates rule-set configuration. The rule-set file itself
// is checked when it is parsed.
func validateRuleSet(cfg *RuleSetConfig) []FieldError {
	var errs []FieldError

	if cfg.OperationsInput == "" {
		errs = append(errs, FieldError{
			Field:   "ruleset.operations_input",
			Message: "operations input variable is required",
		})
	}
	if cfg.ErrorRateInput == "" {
		errs = append(errs, FieldError{
			Field:   "ruleset.error_rate_input",
			Message: "error rate input variable is required",
		})
	}
	if cfg.OperationsInput != "" && cfg.OperationsInput == cfg.ErrorRateInput {
		errs = append(errs, FieldError{
			Field:   "ruleset.error_rate_input",
			Message: fmt.Sprintf("must differ from operations input %q", cfg.OperationsInput),
		})
	}
	if cfg.Watch && cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "ruleset.watch",
			Message: "watch requires a rule-set path; the embedded rule set cannot change",
		})
	}
	if cfg.WatchDebounce < 0 {
		errs = append(errs, FieldError{
			Field:   "ruleset.watch_debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

// validateEvidence validates evidence configuration.
func validateEvidence(cfg *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
		if !validDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "evidence.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "evidence.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 || cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{
				Field:   "evidence.sqlite",
				Message: "connection limits must be non-negative",
			})
		}
	case "":
		errs = append(errs, FieldError{
			Field:   "evidence.backend",
			Message: "backend is required when evidence is enabled",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "evidence.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}

	if cfg.Recorder.AsyncBuffer < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.recorder.async_buffer",
			Message: "async buffer must be non-negative",
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.days",
			Message: "retention days must be non-negative",
		})
	}
	if cfg.Retention.Days > 3650 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.days",
			Message: "retention days exceeds reasonable limit (3650 days / 10 years)",
		})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{
			Field:   "evidence.retention.max_records",
			Message: "max records must be non-negative",
		})
	}
	if cfg.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "evidence.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.PruneSchedule, err),
			})
		}
	}

	if cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		errs = append(errs, FieldError{
			Field:   "evidence.query.default_limit",
			Message: fmt.Sprintf("default limit %d exceeds max limit %d", cfg.Query.DefaultLimit, cfg.Query.MaxLimit),
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	for field, path := range map[string]string{
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
	} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, FieldError{Field: field, Message: "path must start with /"})
		}
	}
	if cfg.Health.CheckTimeout < 0 || cfg.Health.CheckTimeout > 60*time.Second {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be between 0 and 60s",
		})
	}

	return errs
}
