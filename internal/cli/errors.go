// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all CLI commands in cmdai.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//   - Use structured error types for better error handling
//
// Transport failures during a query are NOT errors in this sense: they are
// rendered as fallback answers and the process still exits 0. Only states
// that prevent the command from running at all (missing credential, bad
// usage) surface here.
//
// ERROR HANDLING: Errors must not be silently ignored
package cli

import (
	"errors"
	"fmt"
	"os"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution, including query cycles
	// whose transport errors were rendered as fallback answers.
	ExitSuccess = 0
	// ExitFatal indicates a missing credential or fatal startup error.
	ExitFatal = 1
	// ExitUsageError indicates an unknown command or flag misuse.
	ExitUsageError = 2
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// ConfigError represents a fatal configuration state, most commonly a
// missing API key.
type ConfigError struct {
	Reason string // Human-readable reason (Chinese, user-facing)
	Err    error  // Underlying error (if any)
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UsageError represents an unknown command or misused flag.
type UsageError struct {
	Command string // Command that was attempted (may be empty)
	Hint    string // Usage hint to display
}

func (e *UsageError) Error() string {
	if e.Command != "" {
		return fmt.Sprintf("unknown command: %s", e.Command)
	}
	return "invalid usage"
}

// =============================================================================
// ERROR CONSTRUCTION HELPERS
// =============================================================================

// NewConfigError creates a new fatal configuration error.
func NewConfigError(reason string, err error) error {
	return &ConfigError{Reason: reason, Err: err}
}

// NewUsageError creates a new usage error for an unknown command.
func NewUsageError(command, hint string) error {
	return &UsageError{Command: command, Hint: hint}
}

// =============================================================================
// ERROR DISPLAY AND EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
//
//	nil          -> ExitSuccess
//	*UsageError  -> ExitUsageError
//	anything else -> ExitFatal
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	return ExitFatal
}

// DisplayError displays an error in a consistent format before the process
// exits. ConfigErrors render as the styled warning panel; usage errors print
// the hint; everything else gets a plain error line.
func DisplayError(err error) {
	if err == nil {
		return
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		RenderErrorPanel("配置警告", configErr.Reason)
		return
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		if usageErr.Command != "" {
			fmt.Fprintf(os.Stderr, "%s\n", ErrorStyle.Render("未知命令: "+usageErr.Command))
		}
		if usageErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "%s\n", WarningStyle.Render(usageErr.Hint))
		}
		return
	}

	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("[错误]"), err)
}

// IsConfigError checks if an error is a fatal configuration error.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsUsageError checks if an error is a usage error.
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}
