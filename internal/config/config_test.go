// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config path at a fresh directory and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PARLEY_HOME", dir)
	for _, key := range []string{
		"PARLEY_ENDPOINT", "PARLEY_API_KEY_ENV", "PARLEY_TIMEOUT", "PARLEY_THEME",
		"PARLEY_LOG_LEVEL", "PARLEY_PROXY_LISTEN", "PARLEY_TRACING",
	} {
		t.Setenv(key, "")
	}
	return dir
}

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "X-API-Key", cfg.Endpoint.APIKeyHeader)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout())
	assert.Equal(t, 30*time.Second, cfg.BreakerCooldown())
	assert.Len(t, cfg.UI.History, 3)
	assert.Equal(t, "Chat 1", cfg.UI.History[0].Title)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Endpoint.URL, cfg.Endpoint.URL)
}

// =============================================================================
// FILE ROUND TRIP TESTS
// =============================================================================

func TestSaveAndLoad(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default()
	cfg.Endpoint.URL = "https://example.com/v1/complete"
	cfg.Endpoint.APIKeyEnv = "EXAMPLE_KEY"
	cfg.UI.Theme = "light"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/v1/complete", loaded.Endpoint.URL)
	assert.Equal(t, "EXAMPLE_KEY", loaded.Endpoint.APIKeyEnv)
	assert.Equal(t, "light", loaded.UI.Theme)
	assert.Equal(t, cfg.UI.History, loaded.UI.History)
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	content := `
[endpoint]
url = "https://example.com/complete"

[[ui.history]]
id = 7
title = "Standup notes"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/complete", cfg.Endpoint.URL)
	assert.Equal(t, "X-API-Key", cfg.Endpoint.APIKeyHeader)
	assert.Equal(t, "60s", cfg.Endpoint.Timeout)
	assert.True(t, cfg.UI.Markdown)
	require.Len(t, cfg.UI.History, 1)
	assert.Equal(t, 7, cfg.UI.History[0].ID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "permissions should be tightened on load")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "ui.theme", verrs[0].Field)
}

func TestLoadFromPath_Malformed(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[endpoint\nurl ="), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad scheme", func(c *Config) { c.Endpoint.URL = "ftp://example.com" }, "endpoint.url"},
		{"no host", func(c *Config) { c.Endpoint.URL = "https://" }, "endpoint.url"},
		{"header with space", func(c *Config) { c.Endpoint.APIKeyHeader = "X API Key" }, "endpoint.api_key_header"},
		{"empty header", func(c *Config) { c.Endpoint.APIKeyHeader = "" }, "endpoint.api_key_header"},
		{"bad timeout", func(c *Config) { c.Endpoint.Timeout = "soon" }, "endpoint.timeout"},
		{"negative timeout", func(c *Config) { c.Endpoint.Timeout = "-1s" }, "endpoint.timeout"},
		{"negative rate", func(c *Config) { c.Endpoint.RatePerMinute = -1 }, "endpoint.rate_per_minute"},
		{"zero breaker", func(c *Config) { c.Endpoint.BreakerFailures = 0 }, "endpoint.breaker_failures"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"blank history title", func(c *Config) { c.UI.History[1].Title = " " }, "ui.history[1].title"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty listen", func(c *Config) { c.Proxy.Listen = "" }, "proxy.listen"},
		{"bad exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1, verrs.Error())
			assert.Equal(t, tc.field, verrs[0].Field)
		})
	}
}

func TestValidate_ZeroTimeoutAllowed(t *testing.T) {
	cfg := Default()
	cfg.Endpoint.Timeout = "0s"
	require.NoError(t, cfg.Validate())
	assert.Zero(t, cfg.RequestTimeout())
}

// =============================================================================
// ENVIRONMENT TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PARLEY_ENDPOINT", "https://override.example/complete")
	t.Setenv("PARLEY_API_KEY_ENV", "MY_KEY")
	t.Setenv("PARLEY_THEME", "light")
	t.Setenv("PARLEY_LOG_LEVEL", "debug")
	t.Setenv("PARLEY_PROXY_LISTEN", ":9999")
	t.Setenv("PARLEY_TRACING", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://override.example/complete", cfg.Endpoint.URL)
	assert.Equal(t, "MY_KEY", cfg.Endpoint.APIKeyEnv)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9999", cfg.Proxy.Listen)
	assert.True(t, cfg.Tracing.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PARLEY_DOTENV_A=from-file\nPARLEY_DOTENV_B=from-file\n"), 0600))

	t.Setenv("PARLEY_DOTENV_A", "")
	os.Unsetenv("PARLEY_DOTENV_A")
	t.Setenv("PARLEY_DOTENV_B", "already-set")

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv("PARLEY_DOTENV_A") })

	assert.Equal(t, "from-file", os.Getenv("PARLEY_DOTENV_A"))
	assert.Equal(t, "already-set", os.Getenv("PARLEY_DOTENV_B"), "existing variables win")
}

// =============================================================================
// GET TESTS
// =============================================================================

func TestGet(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("endpoint.api_key_header")
	require.NoError(t, err)
	assert.Equal(t, "X-API-Key", FormatValue(v))

	v, err = cfg.Get("ui.markdown")
	require.NoError(t, err)
	assert.Equal(t, "true", FormatValue(v))

	v, err = cfg.Get("endpoint.breaker_failures")
	require.NoError(t, err)
	assert.Equal(t, "5", FormatValue(v))

	_, err = cfg.Get("endpoint.nope")
	assert.Error(t, err)

	_, err = cfg.Get("ui.theme.color")
	assert.Error(t, err)

	_, err = cfg.Get("")
	assert.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.UI.History[0].Title = "changed"
	clone.Proxy.AllowedOrigins[0] = "changed"

	assert.Equal(t, "Chat 1", cfg.UI.History[0].Title)
	assert.Equal(t, "http://localhost:8080", cfg.Proxy.AllowedOrigins[0])
}
