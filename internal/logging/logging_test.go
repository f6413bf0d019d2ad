// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/parley/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.input), "parseLevel(%q)", tt.input)
	}
}

func TestOpenOutput_Streams(t *testing.T) {
	tests := []struct {
		output string
		want   io.Writer
	}{
		{"stdout", os.Stdout},
		{"stderr", os.Stderr},
		{"", os.Stderr},
		{"discard", io.Discard},
	}
	for _, tt := range tests {
		w, closer, err := openOutput(tt.output)
		require.NoError(t, err, tt.output)
		assert.Equal(t, tt.want, w, tt.output)
		assert.NoError(t, closer())
	}
}

func TestNew_JSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "parley.log")

	log, closer, err := New(config.LogConfig{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	log.Debug("completion request", "request_id", "abc")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &entry), string(data))
	assert.Equal(t, "completion request", entry["msg"])
	assert.Equal(t, "abc", entry["request_id"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNew_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, closer, err := New(config.LogConfig{Level: "warn", Format: "text", Output: path})
	require.NoError(t, err)

	log.Info("should be filtered")
	log.Warn("should appear")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "should be filtered")
	assert.Contains(t, string(data), "should appear")
}

func TestNew_InvalidOutput(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	_, _, err := New(config.LogConfig{Output: filepath.Join(blocker, "app.log")})
	assert.Error(t, err)
}

func TestForTUI_RedirectsTerminalOutput(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PARLEY_HOME", dir)

	log, closer, err := ForTUI(config.LogConfig{Level: "info", Output: "stderr"})
	require.NoError(t, err)
	log.Info("tui started")
	require.NoError(t, closer())

	data, err := os.ReadFile(filepath.Join(dir, "parley.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "tui started"))
}
