package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	// LevelDebug represents debug level logging
	LevelDebug LogLevel = iota
	// LevelInfo represents informational messages
	LevelInfo
	// LevelWarn represents warning conditions
	LevelWarn
	// LevelError represents error conditions
	LevelError
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the main logger type
type Logger struct {
	logger *log.Logger
	level  LogLevel
}

// Config holds the configuration for the logger
type Config struct {
	Level  LogLevel
	Output io.Writer
}

// DefaultLogger is the default logger instance
var DefaultLogger *Logger

func init() {
	DefaultLogger = NewLogger(Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	})
}

// NewLogger creates a new logger instance
func NewLogger(config Config) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}

	return &Logger{
		logger: log.New(config.Output, "", log.LstdFlags|log.Lmsgprefix),
		level:  config.Level,
	}
}

// SetLevel sets the log level
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() LogLevel {
	return l.level
}

func (l *Logger) log(level LogLevel, format string, v ...interface{}) {
	if level < l.level {
		return
	}

	// skip=2: report the caller of the exported logging function
	_, file, line, ok := runtime.Caller(2)
	caller := ""
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	msg := fmt.Sprintf(format, v...)
	l.logger.Printf("[%s] %s %s", level, caller, msg)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.log(LevelDebug, format, v...)
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.log(LevelInfo, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.log(LevelWarn, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.log(LevelError, format, v...)
}

// Package-level convenience functions

// Debug logs a debug message using the default logger
func Debug(format string, v ...interface{}) {
	DefaultLogger.Debug(format, v...)
}

// Info logs an informational message using the default logger
func Info(format string, v ...interface{}) {
	DefaultLogger.Info(format, v...)
}

// Warn logs a warning message using the default logger
func Warn(format string, v ...interface{}) {
	DefaultLogger.Warn(format, v...)
}

// Error logs an error message using the default logger
func Error(format string, v ...interface{}) {
	DefaultLogger.Error(format, v...)
}
