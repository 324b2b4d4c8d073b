package internal

import (
	"log"
	"os"
	"strings"
)

// LogLevel represents different logging verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger provides leveled logging with a component prefix
type Logger struct {
	level     LogLevel
	component string
}

// NewLogger creates a new logger with the specified level
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger creates a logger based on LOG_LEVEL environment variable
func NewDefaultLogger() *Logger {
	return &Logger{level: ParseLogLevel(os.Getenv("LOG_LEVEL"))}
}

// ParseLogLevel maps ERROR, WARN, INFO and DEBUG (any case) to a level;
// anything else is INFO
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError
	case "WARN", "WARNING":
		return LogLevelWarn
	case "DEBUG", "TRACE":
		return LogLevelDebug
	}
	return LogLevelInfo
}

// WithComponent returns a logger that prefixes messages with [component]
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{level: l.level, component: component}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, "ERROR", format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(LogLevelWarn, "WARN", format, args...)
}

// Info logs info messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, "INFO", format, args...)
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, "DEBUG", format, args...)
}

func (l *Logger) logf(level LogLevel, tag, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	prefix := "[" + tag + "] "
	if l.component != "" {
		prefix += "[" + l.component + "] "
	}
	log.Printf(prefix+format, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// Global logger instance
var DefaultLogger = NewDefaultLogger()
