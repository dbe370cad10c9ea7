// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// It wraps github.com/charmbracelet/log behind printf-style package functions.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Global logger instance
	defaultLogger *log.Logger
)

// Init initializes the default logger with the specified level and format
func Init(level string, format string) {
	InitWithWriter(os.Stderr, level, format)
}

// InitWithWriter initializes the default logger writing to w.
// Unknown levels fall back to info; format is "json", "logfmt" or "text".
func InitWithWriter(w io.Writer, level string, format string) {
	l, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		l = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch strings.ToLower(format) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	defaultLogger = log.NewWithOptions(w, log.Options{
		ReportCaller:    formatter == log.TextFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           l,
		Formatter:       formatter,
		CallerOffset:    1,
	})
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Debugf(format, args...)
	}
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Infof(format, args...)
	}
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Warnf(format, args...)
	}
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf(format, args...)
	}
}

// Fatal logs a message at ErrorLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.Errorf(format, args...)
	} else {
		fmt.Fprintf(os.Stderr, "FATAL "+format+"\n", args...)
	}
	os.Exit(1)
}
