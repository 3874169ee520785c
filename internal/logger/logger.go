// Package logger provides leveled logging with debug, info, warn, and error
// levels. It wraps the standard log package to add level filtering and a
// replaceable output writer so tests can capture or mute pipeline logs.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents a logging level.
type Level int

const (
	// DebugLevel logs are voluminous and usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority; a healthy run should not produce any.
	ErrorLevel
)

var defaultLogger = &leveledLogger{
	level:  InfoLevel,
	logger: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds),
}

type leveledLogger struct {
	level  Level
	logger *log.Logger
}

// Init configures the package logger from the config strings. Unknown levels
// fall back to info; the "text" format adds caller file/line.
func Init(level string, format string) {
	var l Level
	switch strings.ToLower(level) {
	case "debug":
		l = DebugLevel
	case "info":
		l = InfoLevel
	case "warn":
		l = WarnLevel
	case "error":
		l = ErrorLevel
	default:
		l = InfoLevel
	}

	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger = &leveledLogger{
		level:  l,
		logger: log.New(os.Stderr, "", flags),
	}
}

// SetOutput redirects log output. Passing nil discards all output; tests use
// this to capture or mute pipeline logs.
func SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	defaultLogger.logger.SetOutput(w)
}

func (l *leveledLogger) logf(at Level, tag, format string, args ...interface{}) {
	if l.level > at {
		return
	}
	_ = l.logger.Output(3, fmt.Sprintf(tag+format, args...))
}

// Debug logs a message at DebugLevel.
func Debug(format string, args ...interface{}) {
	defaultLogger.logf(DebugLevel, "[DEBUG] ", format, args...)
}

// Info logs a message at InfoLevel.
func Info(format string, args ...interface{}) {
	defaultLogger.logf(InfoLevel, "[INFO] ", format, args...)
}

// Warn logs a message at WarnLevel.
func Warn(format string, args ...interface{}) {
	defaultLogger.logf(WarnLevel, "[WARN] ", format, args...)
}

// Error logs a message at ErrorLevel.
func Error(format string, args ...interface{}) {
	defaultLogger.logf(ErrorLevel, "[ERROR] ", format, args...)
}

// Fatal logs a message at ErrorLevel and exits.
func Fatal(format string, args ...interface{}) {
	_ = defaultLogger.logger.Output(2, fmt.Sprintf("[FATAL] "+format, args...))
	os.Exit(1)
}
