// Package logging provides a leveled printf-style logger. Loggers derived
// with With share the parent's level and output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
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

// ParseLevel parses a log level name, case-insensitively. Unknown names
// yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// sink is the state shared by a logger and everything derived from it.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
	closer io.Closer
}

// Logger writes timestamped lines of the form
//
//	15:04:05.000 [INFO] renderer: message
type Logger struct {
	sink      *sink
	component string
}

// New creates a logger writing to stderr.
func New(level Level) *Logger {
	return &Logger{sink: &sink{level: level, output: os.Stderr}}
}

// NewFile creates a logger appending to the file at path. The terminal UI
// owns the screen, so interactive sessions log here instead of stderr.
func NewFile(level Level, path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &Logger{sink: &sink{level: level, output: f, closer: f}}, nil
}

// With returns a logger that prefixes messages with component.
func (l *Logger) With(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: component}
}

// SetOutput sets the log output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Close releases the log file, if the logger owns one.
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.closer == nil {
		return nil
	}
	err := l.sink.closer.Close()
	l.sink.closer = nil
	l.sink.output = io.Discard
	return err
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if level < l.sink.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("15:04:05.000"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString(l.component)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, format, args...)
	b.WriteByte('\n')

	_, _ = io.WriteString(l.sink.output, b.String())
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

// Discard returns a logger that discards all output.
func Discard() *Logger {
	return &Logger{sink: &sink{
		level:  LevelError + 1, // Higher than any level
		output: io.Discard,
	}}
}
