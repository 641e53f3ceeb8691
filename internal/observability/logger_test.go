package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bijoor/site-tour-tools/internal/config"
)

func TestJSONLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "tourplay"}, zapcore.AddSync(buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("tour loaded", zap.Int("pois", 3))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "tourplay", entry["logger"])
	assert.Equal(t, "tour loaded", entry["msg"])
	assert.Equal(t, 3.0, entry["pois"])
}

func TestConsoleLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", Format: "console"}, zapcore.AddSync(buf))
	require.NoError(t, err)

	logger.Debug("branch pending", zap.String("poi", "hall"))
	assert.Contains(t, buf.String(), "branch pending")
	assert.Contains(t, buf.String(), "hall")
}

func TestFileSink(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "tourplay.log")
	logger, err := NewLogger(config.LoggerConfig{Level: "info", Format: "console", LogFile: file, MaxSize: 1}, zapcore.AddSync(new(bytes.Buffer)))
	require.NoError(t, err)

	logger.Warn("segment ends at missing poi")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"WARN"`)
}

func TestBadLevel(t *testing.T) {
	_, err := NewLogger(config.LoggerConfig{Level: "chatty", Format: "json"}, zapcore.AddSync(new(bytes.Buffer)))
	assert.Error(t, err)
}

func TestLoggerFallback(t *testing.T) {
	globalLogger.Store(nil)
	assert.NotNil(t, Logger())

	l, err := Initialize(config.LoggerConfig{Level: "error", Format: "json"})
	require.NoError(t, err)
	assert.Same(t, l, Logger())
	globalLogger.Store(nil)
}
