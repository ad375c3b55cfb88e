package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewRejectsBadOptions(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)

	_, _, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNewQuietIsNop(t *testing.T) {
	logger, closeFn, err := New(Options{Quiet: true})
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewLevel(t *testing.T) {
	logger, closeFn, err := New(Options{Level: "WARN"})
	require.NoError(t, err)
	defer closeFn()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNewJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskman.log")

	logger, closeFn, err := New(Options{Level: "debug", Format: "json", File: path, Quiet: true})
	require.NoError(t, err)

	logger.Named("monitor").Debug("snapshot refreshed", zap.Int("processes", 12))
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "snapshot refreshed", entry["msg"])
	assert.Equal(t, "monitor", entry["logger"])
	assert.Equal(t, float64(12), entry["processes"])
}
