// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/parley/internal/model"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	Endpoint EndpointConfig `toml:"endpoint" json:"endpoint"`
	UI       UIConfig       `toml:"ui" json:"ui"`
	Log      LogConfig      `toml:"log" json:"log"`
	Proxy    ProxyConfig    `toml:"proxy" json:"proxy"`
	Tracing  TracingConfig  `toml:"tracing" json:"tracing"`
}

// EndpointConfig describes the completion endpoint the client talks to.
type EndpointConfig struct {
	// URL accepts POSTed {"prompt"} bodies.
	URL string `toml:"url" json:"url"`
	// APIKeyHeader is the request header that carries the credential.
	APIKeyHeader string `toml:"api_key_header" json:"api_key_header"`
	// APIKeyEnv names the environment variable holding the credential.
	// Empty sends no credential, which is what you want behind `parley proxy`.
	APIKeyEnv string `toml:"api_key_env" json:"api_key_env"`
	// Timeout bounds one request, e.g. "60s". "0s" disables it.
	Timeout string `toml:"timeout" json:"timeout"`
	// RatePerMinute caps outgoing requests. 0 is unlimited.
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute"`
	// BreakerFailures is the consecutive transport failures that open the circuit.
	BreakerFailures int `toml:"breaker_failures" json:"breaker_failures"`
	// BreakerCooldown is how long the circuit stays open, e.g. "30s".
	BreakerCooldown string `toml:"breaker_cooldown" json:"breaker_cooldown"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto" (detect from the terminal background).
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies through glamour.
	Markdown bool `toml:"markdown" json:"markdown"`
	// History is the static sidebar list.
	History []model.HistoryEntry `toml:"history" json:"history"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	// Output is "stderr", "stdout" or a file path.
	Output string `toml:"output" json:"output"`
}

// ProxyConfig configures `parley proxy`.
type ProxyConfig struct {
	Listen      string `toml:"listen" json:"listen"`
	UpstreamURL string `toml:"upstream_url" json:"upstream_url"`
	// UpstreamKeyEnv names the variable holding the real API key. The key
	// itself never appears in the config file.
	UpstreamKeyEnv string `toml:"upstream_key_env" json:"upstream_key_env"`
	// ClientTokenEnv, when set, names the variable holding the token clients
	// must present in X-API-Key. Empty leaves the proxy open to anyone who
	// can reach Listen.
	ClientTokenEnv string   `toml:"client_token_env" json:"client_token_env"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
	// RatePerMinute caps requests per client IP. 0 is unlimited.
	RatePerMinute int `toml:"rate_per_minute" json:"rate_per_minute"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled"`
	Exporter string `toml:"exporter" json:"exporter"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			URL:             "http://127.0.0.1:8787/v1/complete",
			APIKeyHeader:    "X-API-Key",
			APIKeyEnv:       "",
			Timeout:         "60s",
			RatePerMinute:   0,
			BreakerFailures: 5,
			BreakerCooldown: "30s",
		},
		UI: UIConfig{
			Theme:    "dark",
			Markdown: true,
			History:  model.DefaultHistory(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Proxy: ProxyConfig{
			Listen:         "127.0.0.1:8787",
			UpstreamURL:    "https://api.anthropic.com/v1/complete",
			UpstreamKeyEnv: "PARLEY_UPSTREAM_KEY",
			AllowedOrigins: []string{"http://localhost:8080"},
			RatePerMinute:  100,
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Exporter: "stdout",
		},
	}
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Endpoint.URL == "" {
		cfg.Endpoint.URL = defaults.Endpoint.URL
	}
	if cfg.Endpoint.APIKeyHeader == "" {
		cfg.Endpoint.APIKeyHeader = defaults.Endpoint.APIKeyHeader
	}
	if cfg.Endpoint.Timeout == "" {
		cfg.Endpoint.Timeout = defaults.Endpoint.Timeout
	}
	if cfg.Endpoint.BreakerFailures == 0 {
		cfg.Endpoint.BreakerFailures = defaults.Endpoint.BreakerFailures
	}
	if cfg.Endpoint.BreakerCooldown == "" {
		cfg.Endpoint.BreakerCooldown = defaults.Endpoint.BreakerCooldown
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}
	if len(cfg.UI.History) == 0 {
		cfg.UI.History = defaults.UI.History
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = defaults.Log.Output
	}

	if cfg.Proxy.Listen == "" {
		cfg.Proxy.Listen = defaults.Proxy.Listen
	}
	if cfg.Proxy.UpstreamURL == "" {
		cfg.Proxy.UpstreamURL = defaults.Proxy.UpstreamURL
	}
	if cfg.Proxy.UpstreamKeyEnv == "" {
		cfg.Proxy.UpstreamKeyEnv = defaults.Proxy.UpstreamKeyEnv
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = defaults.Tracing.Exporter
	}
}

// RequestTimeout returns the parsed endpoint timeout. Call after Validate.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Endpoint.Timeout)
	return d
}

// BreakerCooldown returns the parsed breaker cooldown. Call after Validate.
func (c *Config) BreakerCooldown() time.Duration {
	d, _ := time.ParseDuration(c.Endpoint.BreakerCooldown)
	return d
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parley configuration directory path.
// $PARLEY_HOME takes precedence over ~/.parley.
func ConfigDir() (string, error) {
	if dir := os.Getenv("PARLEY_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped. With no
// arguments it reads ./.env and <ConfigDir>/.env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
		if dir, err := ConfigDir(); err == nil {
			paths = append(paths, filepath.Join(dir, ".env"))
		}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from the default config file, falling back to
// defaults when it does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg and fills any values left empty.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML saves the configuration to a TOML file, creating its directory.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# API keys are read from the environment; never put them here.")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// Endpoint
	// ==========================================================================

	if err := validateHTTPURL(c.Endpoint.URL); err != nil {
		errs = append(errs, ValidationError{Field: "endpoint.url", Message: err.Error()})
	}
	if !validHeaderName(c.Endpoint.APIKeyHeader) {
		errs = append(errs, ValidationError{
			Field:   "endpoint.api_key_header",
			Message: fmt.Sprintf("invalid header name '%s'", c.Endpoint.APIKeyHeader),
		})
	}
	if d, err := time.ParseDuration(c.Endpoint.Timeout); err != nil || d < 0 {
		errs = append(errs, ValidationError{
			Field:   "endpoint.timeout",
			Message: fmt.Sprintf("invalid duration '%s'", c.Endpoint.Timeout),
		})
	}
	if c.Endpoint.RatePerMinute < 0 {
		errs = append(errs, ValidationError{Field: "endpoint.rate_per_minute", Message: "must not be negative"})
	}
	if c.Endpoint.BreakerFailures < 1 {
		errs = append(errs, ValidationError{Field: "endpoint.breaker_failures", Message: "must be at least 1"})
	}
	if d, err := time.ParseDuration(c.Endpoint.BreakerCooldown); err != nil || d <= 0 {
		errs = append(errs, ValidationError{
			Field:   "endpoint.breaker_cooldown",
			Message: fmt.Sprintf("invalid duration '%s'", c.Endpoint.BreakerCooldown),
		})
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	for i, entry := range c.UI.History {
		if strings.TrimSpace(entry.Title) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("ui.history[%d].title", i),
				Message: "must not be empty",
			})
		}
	}

	// ==========================================================================
	// Logging
	// ==========================================================================

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Log.Format),
		})
	}

	// ==========================================================================
	// Proxy
	// ==========================================================================

	if strings.TrimSpace(c.Proxy.Listen) == "" {
		errs = append(errs, ValidationError{Field: "proxy.listen", Message: "must not be empty"})
	}
	if err := validateHTTPURL(c.Proxy.UpstreamURL); err != nil {
		errs = append(errs, ValidationError{Field: "proxy.upstream_url", Message: err.Error()})
	}
	if c.Proxy.RatePerMinute < 0 {
		errs = append(errs, ValidationError{Field: "proxy.rate_per_minute", Message: "must not be negative"})
	}

	// ==========================================================================
	// Tracing
	// ==========================================================================

	validExporters := map[string]bool{"stdout": true, "noop": true}
	if !validExporters[strings.ToLower(c.Tracing.Exporter)] {
		errs = append(errs, ValidationError{
			Field:   "tracing.exporter",
			Message: fmt.Sprintf("invalid exporter '%s', must be one of: stdout, noop", c.Tracing.Exporter),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL must include a host")
	}
	return nil
}

// validHeaderName reports whether s is a valid HTTP header token.
func validHeaderName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune("()<>@,;:\\\"/[]?={}", r) {
			return false
		}
	}
	return true
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PARLEY_ENDPOINT: overrides endpoint.url
//   - PARLEY_API_KEY_ENV: overrides endpoint.api_key_env
//   - PARLEY_TIMEOUT: overrides endpoint.timeout
//   - PARLEY_THEME: overrides ui.theme
//   - PARLEY_LOG_LEVEL: overrides log.level
//   - PARLEY_PROXY_LISTEN: overrides proxy.listen
//   - PARLEY_TRACING: set to "1" or "true" to enable tracing
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("PARLEY_ENDPOINT"); endpoint != "" {
		c.Endpoint.URL = endpoint
	}
	if keyEnv := os.Getenv("PARLEY_API_KEY_ENV"); keyEnv != "" {
		c.Endpoint.APIKeyEnv = keyEnv
	}
	if timeout := os.Getenv("PARLEY_TIMEOUT"); timeout != "" {
		c.Endpoint.Timeout = timeout
	}
	if theme := os.Getenv("PARLEY_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if level := os.Getenv("PARLEY_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if listen := os.Getenv("PARLEY_PROXY_LISTEN"); listen != "" {
		c.Proxy.Listen = listen
	}
	if tracing := os.Getenv("PARLEY_TRACING"); tracing != "" {
		c.Tracing.Enabled = tracing == "1" || strings.ToLower(tracing) == "true"
	}
}

// =============================================================================
// GET HELPER (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "endpoint.url").
func (c *Config) Get(key string) (interface{}, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

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
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
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

// FormatValue renders a value returned by Get for display.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.UI.History = append([]model.HistoryEntry(nil), c.UI.History...)
	clone.Proxy.AllowedOrigins = append([]string(nil), c.Proxy.AllowedOrigins...)
	return &clone
}

// String returns the config as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
