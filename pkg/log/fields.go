package log

import (
	"log/slog"
	"time"
)

// Field is a single structured logging attribute.
type Field struct {
	Key   string
	Value any
}

// F builds a Field from an arbitrary value.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Str builds a string Field.
func Str(key, value string) Field { return Field{Key: key, Value: value} }

// Int builds an int Field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 builds a uint64 Field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Dur builds a duration Field.
func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// Err builds the conventional "error" Field.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Component tags logs with the emitting component.
func Component(name string) Field { return Field{Key: "component", Value: name} }

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
