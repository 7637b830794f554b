package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("ERROR"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("warn"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel(" debug "))
	assert.Equal(t, LogLevelTrace, ParseLogLevel("TRACE"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLoggerLevelsAndPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn, &buf).With("api")

	logger.Info("hidden %d", 1)
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("slow comparison %s", "x/y")
	assert.Contains(t, buf.String(), "[WARN] [api] slow comparison x/y")

	logger.Error("failed")
	assert.Contains(t, buf.String(), "[ERROR] [api] failed")
	assert.Equal(t, LogLevelWarn, logger.GetLevel())
}
