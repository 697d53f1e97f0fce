// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for cmdai.
//
// Configuration is resolved in order of precedence:
//   - Environment variables (CMDAI_*, plus the legacy SiliconFlow names)
//   - A .env file in the working directory
//   - ~/.cmdai/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/cmdai/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete cmdai configuration.
type Config struct {
	// Version of the config schema, used when migrating old files.
	Version string `toml:"version" json:"version"`

	// API holds the SiliconFlow connection settings.
	API APIConfig `toml:"api" json:"api"`

	// Web holds the settings for the `cmdai serve` web surface.
	Web WebConfig `toml:"web" json:"web"`

	// UI holds terminal presentation settings.
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains the SiliconFlow API settings.
type APIConfig struct {
	// Key is the SiliconFlow API key. Keep this file 0600.
	Key string `toml:"key" json:"key"`
	// BaseURL is the API base, without the /chat/completions suffix.
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the chat model identifier.
	Model string `toml:"model" json:"model"`
	// TimeoutSecs bounds one chat round trip, in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// WebConfig contains the web surface settings.
type WebConfig struct {
	// Port is the listen port for `cmdai serve`.
	Port int `toml:"port" json:"port"`
	// MaxSessions caps the number of concurrently remembered chat sessions.
	// When full, the oldest session is evicted on the next new visitor.
	MaxSessions int `toml:"max_sessions" json:"max_sessions"`
}

// UIConfig contains terminal presentation settings.
type UIConfig struct {
	// NoColor disables ANSI styling even on capable terminals.
	NoColor bool `toml:"no_color" json:"no_color"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default values mirrored from the transport client; kept literal here so the
// config file documents itself when saved.
const (
	DefaultBaseURL     = "https://api.siliconflow.cn/v1"
	DefaultModel       = "Qwen/Qwen2.5-7B-Instruct"
	DefaultTimeoutSecs = 30
	DefaultPort        = 8787
	DefaultMaxSessions = 256
)

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			Key:         "",
			BaseURL:     DefaultBaseURL,
			Model:       DefaultModel,
			TimeoutSecs: DefaultTimeoutSecs,
		},

		Web: WebConfig{
			Port:        DefaultPort,
			MaxSessions: DefaultMaxSessions,
		},

		UI: UIConfig{
			NoColor: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the cmdai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".cmdai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the path to the interactive-mode history file.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file and environment.
// CONFIG: Validation after every load ensures a safe configuration.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// A .env in the working directory fills unset environment variables, the
	// same way the assistant's earlier releases read their key. Real
	// environment variables always win; a missing file is the normal case.
	_ = godotenv.Load()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	fillDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	if cfg.Web.Port == 0 {
		cfg.Web.Port = defaults.Web.Port
	}
	if cfg.Web.MaxSessions == 0 {
		cfg.Web.MaxSessions = defaults.Web.MaxSessions
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// The key is also read from the legacy SiliconFlow names, so existing .env
// files keep working without edits.
func (c *Config) ApplyEnvOverrides() {
	// CMDAI_API_KEY, falling back to the legacy SiliconFlow names
	if key := os.Getenv("CMDAI_API_KEY"); key != "" {
		c.API.Key = key
	} else if key := os.Getenv("SILICONFLOW_API_KEY"); key != "" {
		c.API.Key = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		c.API.Key = key
	}

	// CMDAI_BASE_URL
	if base := os.Getenv("CMDAI_BASE_URL"); base != "" {
		c.API.BaseURL = base
	}

	// CMDAI_MODEL
	if model := os.Getenv("CMDAI_MODEL"); model != "" {
		c.API.Model = model
	}

	// CMDAI_TIMEOUT_SECS
	if timeout := os.Getenv("CMDAI_TIMEOUT_SECS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.API.TimeoutSecs = secs
		}
	}

	// CMDAI_PORT
	if port := os.Getenv("CMDAI_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Web.Port = p
		}
	}

	// CMDAI_NO_COLOR
	if noColor := os.Getenv("CMDAI_NO_COLOR"); noColor != "" {
		c.UI.NoColor = noColor == "1" || strings.ToLower(noColor) == "true"
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
// SECURITY: The file carries the API key, so it is written 0600.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file at path.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# cmdai configuration file\n")
	buf.WriteString("# Generated by cmdai - edit with care\n")
	buf.WriteString("#\n")
	buf.WriteString("# Set api.key here or export CMDAI_API_KEY to authenticate.\n\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host[:port][/path]", c.API.BaseURL),
			})
		}
	}

	if c.API.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "api.model",
			Message: "model must not be empty",
		})
	}

	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("must be between 1 and 600 seconds, got %d", c.API.TimeoutSecs),
		})
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "web.port",
			Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Web.Port),
		})
	}

	if c.Web.MaxSessions < 1 || c.Web.MaxSessions > 100000 {
		errs = append(errs, ValidationError{
			Field:   "web.max_sessions",
			Message: fmt.Sprintf("must be between 1 and 100000, got %d", c.Web.MaxSessions),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.model").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "api.model").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"api.key",
		"api.base_url",
		"api.model",
		"api.timeout_secs",
		"web.port",
		"web.max_sessions",
		"ui.no_color",
	}
}

// =============================================================================
// HELPER METHODS
// =============================================================================

// HasKey reports whether an API key is configured.
func (c *Config) HasKey() bool {
	return strings.TrimSpace(c.API.Key) != ""
}

// MaskedKey returns a safe display form of the API key.
// SECURITY: Never exposes key fragments, only presence and length.
func (c *Config) MaskedKey() string {
	if !c.HasKey() {
		return "(未设置)"
	}
	return fmt.Sprintf("[已设置, 长度=%d]", util.RuneLen(strings.TrimSpace(c.API.Key)))
}

// Clone returns a copy of the config. The struct holds no reference types,
// so a value copy is a full copy.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the API key so it cannot leak through logs or errors.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.Key != "" {
		safe.API.Key = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
