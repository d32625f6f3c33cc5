package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)

	l.Component("bridge").Info("host call", zap.String("cmd", "plugin:window|title"))
	l.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "host call", entry["message"])
	assert.Equal(t, "bridge", entry["logger"])
	assert.Equal(t, "plugin:window|title", entry["cmd"])
	assert.Contains(t, entry, "timestamp")
}

func TestSetLevelReachesComponents(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn", Output: zapcore.AddSync(&buf)})
	require.NoError(t, err)
	events := l.Component("events")

	events.Info("dropped")
	assert.Zero(t, buf.Len())

	require.NoError(t, l.SetLevel("debug"))
	events.Info("delivered")
	assert.Contains(t, buf.String(), "delivered")

	assert.Error(t, l.SetLevel("verbose"))
}

func TestComponentOnNil(t *testing.T) {
	var l *Logger
	assert.NotNil(t, l.Component("events"))
	assert.NotNil(t, OrNop(nil))
}
