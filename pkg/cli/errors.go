package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the perfscore command.
const (
	ExitOK      = 0
	ExitFailure = 1 // command ran and reported failures (lint errors, failed scenarios)
	ExitConfig  = 2 // configuration or usage error
)

// ConfigError is a problem with flags, the config file or the environment.
// It exits with ExitConfig.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// WrapConfigError wraps a load or validation failure.
func WrapConfigError(message string, err error) *ConfigError {
	return &ConfigError{Message: message, Err: err}
}

// UsageError wraps a flag parse failure reported by cobra.
func UsageError(err error) *ConfigError {
	return &ConfigError{Field: "flags", Message: "invalid usage", Err: err}
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Field != "" {
		return fmt.Sprintf("config error in %s: %s", e.Field, msg)
	}
	return "config error: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// CommandError is a command that ran to completion but failed.
type CommandError struct {
	Command string
	Err     error
}

func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &cfgErr):
		return ExitConfig
	default:
		return ExitFailure
	}
}
