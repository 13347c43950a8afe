package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents the severity of a log message.
type Level int

// Log levels, lowest to highest severity.
const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a textual level ("debug", "info", "warn", "error").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", s)
	}
}

func (l Level) slog() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger is the structured logging facade used across hexboltmq components.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// With returns a derived logger carrying additional fields.
	With(fields ...Field) Logger
	// WithComponent tags log lines with a component name.
	WithComponent(component string) Logger
}

// baseLogger is the slog-backed implementation of Logger.
type baseLogger struct {
	s   *slog.Logger
	lvl *slog.LevelVar
}

// Option configures a logger under construction.
type Option func(*loggerConfig)

type loggerConfig struct {
	level  Level
	format string
	out    io.Writer
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) Option {
	return func(c *loggerConfig) { c.level = level }
}

// WithJSONFormat switches output to JSON (default is text).
func WithJSONFormat() Option {
	return func(c *loggerConfig) { c.format = "json" }
}

// WithOutput directs log output to w (default os.Stderr).
func WithOutput(w io.Writer) Option {
	return func(c *loggerConfig) { c.out = w }
}

// NewLogger builds a Logger with the given options.
func NewLogger(options ...Option) Logger {
	cfg := loggerConfig{level: InfoLevel, format: "text", out: os.Stderr}
	for _, opt := range options {
		opt(&cfg)
	}

	lvl := new(slog.LevelVar)
	lvl.Set(cfg.level.slog())

	hopts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if cfg.format == "json" {
		h = slog.NewJSONHandler(cfg.out, hopts)
	} else {
		h = slog.NewTextHandler(cfg.out, hopts)
	}
	return &baseLogger{s: slog.New(h), lvl: lvl}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return &baseLogger{s: slog.New(slog.NewTextHandler(io.Discard, nil)), lvl: new(slog.LevelVar)}
}

func (l *baseLogger) Debug(msg string, fields ...Field) { l.s.Debug(msg, attrs(fields)...) }
func (l *baseLogger) Info(msg string, fields ...Field)  { l.s.Info(msg, attrs(fields)...) }
func (l *baseLogger) Warn(msg string, fields ...Field)  { l.s.Warn(msg, attrs(fields)...) }
func (l *baseLogger) Error(msg string, fields ...Field) { l.s.Error(msg, attrs(fields)...) }

func (l *baseLogger) With(fields ...Field) Logger {
	return &baseLogger{s: l.s.With(attrs(fields)...), lvl: l.lvl}
}

func (l *baseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}
