package broker

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/hexboltmq/hexboltmq/internal/queue"
)

// celFilter wraps a compiled CEL program used to narrow dead-letter listings.
// When disabled, Eval always returns true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.UintType),
		cel.Variable("priority", cel.UintType),
		cel.Variable("retry_count", cel.IntType),
		cel.Variable("max_retries", cel.IntType),
		cel.Variable("available_at_ms", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		// Expose parsed JSON payload (map/list/values) for field filtering
		cel.Variable("json", cel.DynType),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the compiled expression against a message. When disabled,
// returns true.
func (f celFilter) Eval(m queue.Message) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(m.Payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"id":              m.ID,
		"priority":        uint64(m.Priority),
		"retry_count":     int64(m.RetryCount),
		"max_retries":     int64(m.MaxRetries),
		"available_at_ms": m.AvailableAt.UnixMilli(),
		"size":            int64(len(m.Payload)),
		"text":            string(m.Payload),
		"json":            jsonObj,
		"now_ms":          time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
