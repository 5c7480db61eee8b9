package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("trace"))
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(""))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("bogus"))
}

func TestSetupLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closers, err := SetupLogger(Config{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)
	assert.Empty(t, closers)

	logger.Debug("hidden")
	logger.Info("shown", "node", 7)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.EqualValues(t, 7, rec["node"])
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "autoexpr.log")
	var buf bytes.Buffer
	logger, closers, err := SetupLogger(Config{Level: "debug", File: path}, &buf)
	require.NoError(t, err)
	require.Len(t, closers, 1)

	logger.With("pass", 1).Debug("block registered")
	require.NoError(t, closers[0].Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "block registered")
	assert.Contains(t, string(data), "pass=1")
	assert.Contains(t, buf.String(), "block registered")
}

func TestMultiHandlerLevels(t *testing.T) {
	var quiet, loud bytes.Buffer
	h := MultiHandler{hs: []slog.Handler{
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&loud, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}}
	logger := slog.New(h)
	logger.Info("info only")
	assert.Empty(t, quiet.String())
	assert.Contains(t, loud.String(), "info only")
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
}
