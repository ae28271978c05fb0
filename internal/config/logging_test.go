package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &Config{LogLevel: slog.LevelWarn, LogFormat: "json"})
	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "value", entry["key"])

	buf.Reset()
	NewLogger(&buf, &Config{LogLevel: slog.LevelInfo, LogFormat: "text"}).Info("hello")
	assert.True(t, strings.Contains(buf.String(), "msg=hello"))
}
