package logutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a level, defaulting to INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level       LogLevel
	Format      string // "json" or "text"
	ServiceName string
	Output      io.Writer
}

// DefaultLogConfig provides sensible logging defaults
var DefaultLogConfig = LogConfig{
	Level:       INFO,
	Format:      "text",
	ServiceName: "oculus-console",
}

// Logger provides structured logging functionality
type Logger struct {
	config LogConfig

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
	exit func(int)
}

// NewLogger creates a new logger with the specified configuration
func NewLogger(config LogConfig) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	if config.ServiceName == "" {
		config.ServiceName = DefaultLogConfig.ServiceName
	}
	return &Logger{
		config: config,
		out:    out,
		now:    time.Now,
		exit:   os.Exit,
	}
}

// NewDefaultLogger creates a logger with default configuration
func NewDefaultLogger() *Logger {
	return NewLogger(DefaultLogConfig)
}

// NewNopLogger discards everything
func NewNopLogger() *Logger {
	return NewLogger(LogConfig{Level: FATAL + 1, Output: io.Discard})
}

// Fields represents structured log fields
type Fields map[string]interface{}

type logMessage struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service"`
	Message   string `json:"message"`
	Fields    Fields `json:"fields,omitempty"`
}

// Level returns the configured minimum level
func (l *Logger) Level() LogLevel {
	return l.config.Level
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.config.Level
}

func (l *Logger) formatMessage(level LogLevel, msg string, fields Fields) string {
	timestamp := l.now().UTC().Format(time.RFC3339)

	if l.config.Format == "json" {
		data, err := json.Marshal(logMessage{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   l.config.ServiceName,
			Message:   msg,
			Fields:    fields,
		})
		if err == nil {
			return string(data)
		}
		// unmarshalable field values fall back to text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s: %s", timestamp, level.String(), l.config.ServiceName, msg)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" |")
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	return b.String()
}

func (l *Logger) log(level LogLevel, msg string, fields Fields) {
	if !l.shouldLog(level) {
		return
	}

	line := l.formatMessage(level, msg, fields)

	l.mu.Lock()
	fmt.Fprintln(l.out, line)
	l.mu.Unlock()

	if level == FATAL {
		l.exit(1)
	}
}

func first(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Fields) { l.log(DEBUG, msg, first(fields)) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Fields) { l.log(INFO, msg, first(fields)) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Fields) { l.log(WARN, msg, first(fields)) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Fields) { l.log(ERROR, msg, first(fields)) }

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string, fields ...Fields) { l.log(FATAL, msg, first(fields)) }

// WithFields returns a logger with pre-set fields
func (l *Logger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{
		logger: l,
		fields: fields,
	}
}

// FieldLogger is a logger with pre-set fields
type FieldLogger struct {
	logger *Logger
	fields Fields
}

func (fl *FieldLogger) mergeFields(newFields []Fields) Fields {
	if len(newFields) == 0 {
		return fl.fields
	}
	merged := make(Fields, len(fl.fields)+len(newFields[0]))
	for k, v := range fl.fields {
		merged[k] = v
	}
	for k, v := range newFields[0] {
		merged[k] = v
	}
	return merged
}

// WithFields layers more fields on top of the pre-set ones
func (fl *FieldLogger) WithFields(fields Fields) *FieldLogger {
	return &FieldLogger{
		logger: fl.logger,
		fields: fl.mergeFields([]Fields{fields}),
	}
}

// Debug logs a debug message with pre-set fields
func (fl *FieldLogger) Debug(msg string, fields ...Fields) {
	fl.logger.log(DEBUG, msg, fl.mergeFields(fields))
}

// Info logs an info message with pre-set fields
func (fl *FieldLogger) Info(msg string, fields ...Fields) {
	fl.logger.log(INFO, msg, fl.mergeFields(fields))
}

// Warn logs a warning message with pre-set fields
func (fl *FieldLogger) Warn(msg string, fields ...Fields) {
	fl.logger.log(WARN, msg, fl.mergeFields(fields))
}

// Error logs an error message with pre-set fields
func (fl *FieldLogger) Error(msg string, fields ...Fields) {
	fl.logger.log(ERROR, msg, fl.mergeFields(fields))
}

// Fatal logs a fatal message with pre-set fields and exits
func (fl *FieldLogger) Fatal(msg string, fields ...Fields) {
	fl.logger.log(FATAL, msg, fl.mergeFields(fields))
}

var globalLogger = NewDefaultLogger()

// SetGlobalLogger sets the global logger instance
func SetGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// Global returns the process-wide logger
func Global() *Logger {
	return globalLogger
}

func Debug(msg string, fields ...Fields) {
	globalLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Fields) {
	globalLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Fields) {
	globalLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...Fields) {
	globalLogger.Error(msg, fields...)
}

func Fatal(msg string, fields ...Fields) {
	globalLogger.Fatal(msg, fields...)
}
