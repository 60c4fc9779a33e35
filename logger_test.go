package modkit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockLogger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Trace(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Debug(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Info(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Warn(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Error(msg string, args ...any) {
	m.Called(msg, args)
}

func (m *MockLogger) Fatal(msg string, args ...any) {
	m.Called(msg, args)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestZerologLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(LogConfig{Name: "billing", Ns: "App.billing", Level: "debug"}, &buf)

	log.Trace("dropped")
	log.Debug("resolved", "providers", 2)
	log.Fatal("failed to inject module", "name", "rabbit")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "resolved", lines[0]["message"])
	assert.Equal(t, "App.billing", lines[0]["ns"])
	assert.Equal(t, "billing", lines[0]["logger"])
	assert.EqualValues(t, 2, lines[0]["providers"])

	assert.Equal(t, "fatal", lines[1]["level"])
	assert.Equal(t, "rabbit", lines[1]["name"])
}

func TestZerologLogger_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(LogConfig{Level: "verbose"}, &buf)

	log.Debug("hidden")
	log.Info("shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["message"])
}

func TestZerologLogger_Console(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(LogConfig{Format: "console"}, &buf)

	log.Warn("slow init", "module", "billing")

	out := buf.String()
	assert.Contains(t, out, "slow init")
	assert.Contains(t, out, "billing")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestZapLoggerProvider(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := ZapLoggerProvider(zap.New(core))

	log := provider(LogConfig{Ns: "App.billing", Level: "warn"})
	log.Info("hidden")
	log.Warn("shown", "provider", "stripe")
	log.Fatal("failed", "name", "rabbit")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "App.billing", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "stripe", entries[0].ContextMap()["provider"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "fatal", entries[1].ContextMap()["severity"])
}

func TestZapLogger_TraceMapsToDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := ZapLoggerProvider(zap.New(core))(LogConfig{Level: "trace"})

	log.Trace("init", "module", "App")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.DebugLevel, logs.All()[0].Level)
}
