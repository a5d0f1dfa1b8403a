package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gscrape.log")
	cfg := &LoggingConfig{Level: "debug", Format: "json", File: path, MaxSize: 1}

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.With("run_id", "abc").Debug("scrape hop", "provider", "vadapav")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "scrape hop", entry["msg"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "vadapav", entry["provider"])
}

func TestNewLogger_DefaultFile(t *testing.T) {
	state := t.TempDir()
	t.Setenv("XDG_STATE_HOME", state)
	cfg := &LoggingConfig{Level: "info", Format: "text"}

	_, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(state, "gscrape", "gscrape.log"), cfg.File)
}

func TestNewLogger_ConsoleColor(t *testing.T) {
	var buf bytes.Buffer
	cfg := &LoggingConfig{Level: "info", Format: "text", File: StderrSink, Color: true}

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.With("run_id", "abc").Warn("slow provider")
	logger.Debug("filtered out")

	out := buf.String()
	assert.Contains(t, out, "\033[33m")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "slow provider")
	assert.NotContains(t, out, "filtered out")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewLogger_ConsolePlain(t *testing.T) {
	var buf bytes.Buffer
	cfg := &LoggingConfig{Level: "info", Format: "text", File: StderrSink}

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.WithGroup("http").Info("request", "status", 200)
	assert.Contains(t, buf.String(), "http.status=200")
	assert.NotContains(t, buf.String(), "\033[")
}
