// Package config provides configuration management for perfscore.
//
// Configuration is read from a YAML file, decoded on top of the defaults,
// overridden by environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("perfscore.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PERFSCORE_SECTION_FIELD:
//
//   - PERFSCORE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PERFSCORE_RULESET_PATH overrides ruleset.path
//   - PERFSCORE_EVIDENCE_BACKEND overrides evidence.backend
//   - PERFSCORE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// A malformed override (for example PERFSCORE_RULESET_WATCH=maybe) is a
// validation error.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation
//
// # Validation
//
// Validate collects every FieldError into a single ValidationError so an
// operator sees all problems at once. The rule-set file named by
// ruleset.path is validated separately when it is parsed.
package config
