package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, "FATAL", LevelFatal.String())
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, Format: FormatJSON})

	log.Debug("hidden")
	log.With(Component("matching")).Info("ranked", UserID("u1"), Count(3), Err(errors.New("boom")))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "ranked", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "matching", entry["component"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, "boom", entry["error"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestLogger_Observer(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core)).WithRequestID("req-1")

	log.Warn("slow query", Latency(1500), Operation("GetAll"))

	entries := observed.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "req-1", ctx[RequestIDKey])
	assert.Equal(t, "GetAll", ctx["operation"])
	assert.Equal(t, "1.5µs", ctx["latency"])
	assert.True(t, log.Enabled(LevelDebug))
}

func TestContextPropagation(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := NewFromZap(zap.New(core))

	ctx := WithContext(context.Background(), log)
	FromContext(ctx).Info("from context")

	assert.Equal(t, 1, observed.Len())
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("discarded")
	assert.False(t, log.Enabled(LevelError))
}
