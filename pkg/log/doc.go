// Package log provides hexboltmq's structured logging facade.
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context, backed by the standard library's slog
// handlers. Keeping components against the facade keeps call sites uniform
// and lets output format and level be decided once at process startup.
//
// Quick start:
//
//	l := log.NewLogger(log.WithLevel(log.InfoLevel))
//	l = l.WithComponent("queue")
//	l.Info("message dead-lettered", log.Uint64("id", 42), log.Int("retries", 5))
//
// Use ApplyConfig to build a logger from a declarative Config (level and
// text/json format), and RedirectStdLog to route standard-library log output
// (e.g. from Pebble) through the facade.
package log
