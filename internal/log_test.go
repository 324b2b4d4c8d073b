package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("Debug"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	flags := log.Flags()
	log.SetFlags(0)
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	}()

	logger := NewLogger(LogLevelWarn).WithComponent("Pipeline")
	logger.Info("hidden")
	logger.Warn("shown %d", 1)

	assert.Equal(t, "[WARN] [Pipeline] shown 1\n", buf.String())
}
