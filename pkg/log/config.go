package log

import (
	"io"
	stdlog "log"
)

// Config is a declarative logger configuration, usually sourced from flags or
// environment variables.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // "text" or "json"
}

// ApplyConfig builds a Logger from a Config. Unknown levels are an error;
// unknown formats fall back to text.
func ApplyConfig(cfg *Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithLevel(lvl)}
	if cfg.Format == "json" {
		opts = append(opts, WithJSONFormat())
	}
	return NewLogger(opts...), nil
}

// RedirectStdLog routes standard-library log output (used by Pebble, net/http)
// through the given Logger at info level.
func RedirectStdLog(l Logger) {
	stdlog.SetFlags(0)
	stdlog.SetOutput(stdWriter{l})
}

type stdWriter struct{ l Logger }

func (w stdWriter) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	w.l.Info(msg, Str("source", "stdlog"))
	return len(p), nil
}

var _ io.Writer = stdWriter{}
