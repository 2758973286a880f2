package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("info", "json", &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("stored", zap.Int("records", 3))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "stored", entry["msg"])
	assert.Equal(t, float64(3), entry["records"])
	assert.Contains(t, entry, "ts")
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter("debug", "console", &buf)
	require.NoError(t, err)

	logger.Debug("searching", zap.String("backend", "memory"))
	assert.Contains(t, buf.String(), "searching")
	assert.Contains(t, buf.String(), "memory")
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)

	_, err = New("info", "xml")
	assert.Error(t, err)
}

func TestRedactedURL(t *testing.T) {
	cases := map[string]string{
		"postgres://rag:secret@db:5432/rag": "postgres://rag:%5BREDACTED%5D@db:5432/rag",
		"qdrant://api-key@vectors:6334":     "qdrant://%5BREDACTED%5D@vectors:6334",
		"redis://localhost:6379/0":          "redis://localhost:6379/0",
		"memory://":                         "memory://",
	}

	for in, want := range cases {
		core, logs := observer.New(zapcore.InfoLevel)
		zap.New(core).Info("store", RedactedURL("url", in))

		require.Equal(t, 1, logs.Len())
		got := logs.All()[0].ContextMap()["url"]
		assert.Equal(t, want, got, in)
		assert.NotContains(t, got, "secret")
	}
}
