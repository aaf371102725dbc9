package eventlog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// Filter wraps a compiled CEL program evaluated against each record. The zero
// Filter is disabled and matches every record.
//
// Variables available to expressions:
//
//	sequence int     record sequence number
//	size     int     payload length in bytes
//	text     string  payload as text
//	json     dyn     payload parsed as JSON (null when it is not JSON)
//
// Example: `text.startsWith("a") && sequence >= 10`.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. An empty expression yields a disabled filter.
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("sequence", cel.IntType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, iss.Err()
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return Filter{}, fmt.Errorf("eventlog: filter must evaluate to bool, got %s", t)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Eval reports whether the record matches. Evaluation errors count as no match.
func (f Filter) Eval(seq uint64, payload []byte) bool {
	if !f.enabled {
		return true
	}
	var jsonObj any
	_ = json.Unmarshal(payload, &jsonObj)
	out, _, err := f.prog.Eval(map[string]any{
		"sequence": int64(seq),
		"size":     int64(len(payload)),
		"text":     string(payload),
		"json":     jsonObj,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
