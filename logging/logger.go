package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
// Matching is case-insensitive.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger defines the minimal logging interface for StoryMesh.
// This allows users to provide their own logger implementation or use the
// built-in adapters.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger creates a Logger using slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards all log messages. Useful for testing or when logging
// is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// StoryMeshLogger wraps slog.Logger adding contextual cloning helpers and
// domain convenience methods. It should be cheap to copy via With* methods.
type StoryMeshLogger struct {
	logger *slog.Logger
	level  LogLevel
	runID  string
	story  int
	phase  string
}

// LoggerConfig configures construction of a StoryMeshLogger.
type LoggerConfig struct {
	Level  LogLevel
	Format string // json or text
	Output io.Writer
}

// DefaultLoggerConfig returns a baseline text info level configuration.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "text", Output: os.Stderr}
}

// NewLogger builds a StoryMeshLogger from a config (or defaults if nil).
func NewLogger(cfg *LoggerConfig) *StoryMeshLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &StoryMeshLogger{logger: slog.New(handler), level: cfg.Level}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun attaches the run identifier to every subsequent log entry.
func (l *StoryMeshLogger) WithRun(runID string) *StoryMeshLogger {
	nl := *l
	nl.runID = runID
	return &nl
}

// WithStory attaches the current story index.
func (l *StoryMeshLogger) WithStory(index int) *StoryMeshLogger {
	nl := *l
	nl.story = index
	return &nl
}

// WithPhase attaches the current scheduler phase.
func (l *StoryMeshLogger) WithPhase(phase string) *StoryMeshLogger {
	nl := *l
	nl.phase = phase
	return &nl
}

func (l *StoryMeshLogger) attrs(extra []any) []any {
	args := make([]any, 0, len(extra)+6)
	if l.runID != "" {
		args = append(args, "run_id", l.runID)
	}
	if l.story > 0 {
		args = append(args, "story", l.story)
	}
	if l.phase != "" {
		args = append(args, "phase", l.phase)
	}
	return append(args, extra...)
}

// Debug logs at debug level.
func (l *StoryMeshLogger) Debug(msg string, args ...any) {
	l.logger.Debug(msg, l.attrs(args)...)
}

// Info logs at info level.
func (l *StoryMeshLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.attrs(args)...)
}

// Warn logs at warn level.
func (l *StoryMeshLogger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, l.attrs(args)...)
}

// Error logs at error level.
func (l *StoryMeshLogger) Error(msg string, args ...any) {
	l.logger.Error(msg, l.attrs(args)...)
}

// LogModelCall records model call latency, token usage and success.
func (l *StoryMeshLogger) LogModelCall(model string, tokens int, dur time.Duration, err error) {
	args := l.attrs([]any{"model", model, "token_count", tokens, "duration", dur})
	if err != nil {
		args = append(args, "error", err.Error())
		l.logger.Error("Model call failed", args...)
		return
	}
	l.logger.Info("Model call completed", args...)
}

// LogPhaseTransition records a scheduler phase change.
func (l *StoryMeshLogger) LogPhaseTransition(from, to string) {
	l.logger.Info("Phase transition", l.attrs([]any{"from", from, "to", to})...)
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *StoryMeshLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}
