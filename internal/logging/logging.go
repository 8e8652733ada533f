package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level controls which messages a Logger emits.
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
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel maps a level name to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a single structured key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a single structured field.
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithFields flattens a map into structured fields.
func WithFields(fields map[string]interface{}) Field {
	return Field{Key: "", Value: fields}
}

// Logger writes leveled, structured log lines to a single writer.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// New creates a logger writing to stderr at the given level.
func New(level Level) *Logger {
	return &Logger{out: os.Stderr, level: level}
}

// NewWithWriter creates a logger writing to the given writer.
func NewWithWriter(level Level, out io.Writer) *Logger {
	return &Logger{out: out, level: level}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields...) }

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...Field) { l.log(LevelInfo, msg, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...Field) { l.log(LevelWarn, msg, fields...) }

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...Field) {
	if level < l.level {
		return
	}

	flat := map[string]interface{}{}
	for _, f := range fields {
		if f.Key == "" {
			if m, ok := f.Value.(map[string]interface{}); ok {
				for k, v := range m {
					flat[k] = v
				}
			}
			continue
		}
		flat[f.Key] = f.Value
	}

	suffix := ""
	if len(flat) > 0 {
		if data, err := json.Marshal(flat); err == nil {
			suffix = " " + string(data)
		}
	}

	line := fmt.Sprintf("%s [%s] %s%s\n", time.Now().UTC().Format(time.RFC3339), level, msg, suffix)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line)
}
