package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"jack/internal/plugin"
)

// MathPlugin answers simple_math over two operands.
// Parameters: a, b (numbers), op (one of + - * /).
type MathPlugin struct{}

// NewMathPlugin creates the math plugin.
func NewMathPlugin() *MathPlugin { return &MathPlugin{} }

// Name implements plugin.Plugin.
func (p *MathPlugin) Name() string { return "math" }

// Actions implements plugin.Plugin.
func (p *MathPlugin) Actions() []string { return []string{"simple_math"} }

// Execute implements plugin.Plugin.
func (p *MathPlugin) Execute(_ context.Context, _ string, params map[string]any) (*plugin.Result, error) {
	a, ok := toFloat(params["a"])
	if !ok {
		return plugin.Fail("parameter 'a' must be a number"), nil
	}
	b, ok := toFloat(params["b"])
	if !ok {
		return plugin.Fail("parameter 'b' must be a number"), nil
	}
	op, _ := params["op"].(string)

	var value float64
	switch op {
	case "+":
		value = a + b
	case "-":
		value = a - b
	case "*":
		value = a * b
	case "/":
		if b == 0 {
			return plugin.Fail("division by zero"), nil
		}
		value = a / b
	default:
		return plugin.Fail(fmt.Sprintf("unsupported operator %q", op)), nil
	}

	return plugin.Ok(map[string]any{
		"result":     value,
		"expression": fmt.Sprintf("%g %s %g", a, op, b),
	}), nil
}

// toFloat accepts the numeric shapes JSON decoding produces.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
