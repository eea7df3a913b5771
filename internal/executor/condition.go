package executor

import (
	"regexp"
	"strconv"
	"strings"

	"jack/internal/logging"
	"jack/internal/types"
)

// Conditional intents are gated on a deliberately closed expression
// grammar, not a general expression language:
//
//	<intentId>.data.<field> <op> <literal>
//	<intentId>.data.<field>              (bare truthiness check)
//
// with op one of === == !== != and literals true/false/null, numbers,
// and quoted strings. Any parse failure or missing intent/field
// evaluates to false: a malformed condition skips the step rather
// than executing it. Keeping the grammar closed avoids introducing an
// injection surface; this is a simplicity/security tradeoff, not an
// embedded interpreter.
var conditionRe = regexp.MustCompile(
	`^\s*([A-Za-z0-9_-]+)\.data\.([A-Za-z0-9_-]+)\s*(?:(===|==|!==|!=)\s*(.+?))?\s*$`)

// EvaluateCondition evaluates expr against the accumulated results.
// Fail-closed: any malformed expression or unresolvable reference
// returns false.
func EvaluateCondition(expr string, results map[string]*types.ExecutionResult) bool {
	m := conditionRe.FindStringSubmatch(expr)
	if m == nil {
		logging.ExecutorDebug("condition %q did not parse; failing closed", expr)
		return false
	}
	intentID, field, op, rawLiteral := m[1], m[2], m[3], m[4]

	value, ok := lookupField(results, intentID, field)
	if !ok {
		logging.ExecutorDebug("condition %q: %s.data.%s not found; failing closed", expr, intentID, field)
		return false
	}

	if op == "" {
		return truthy(value)
	}

	literal, ok := parseLiteral(rawLiteral)
	if !ok {
		logging.ExecutorDebug("condition %q: bad literal %q; failing closed", expr, rawLiteral)
		return false
	}

	switch op {
	case "===":
		return strictEqual(value, literal)
	case "!==":
		return !strictEqual(value, literal)
	case "==":
		return looseEqual(value, literal)
	case "!=":
		return !looseEqual(value, literal)
	}
	return false
}

// lookupField resolves <intentId>.data.<field> against the results map.
func lookupField(results map[string]*types.ExecutionResult, intentID, field string) (any, bool) {
	res, ok := results[intentID]
	if !ok || res == nil {
		return nil, false
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := data[field]
	return v, ok
}

// parseLiteral accepts true/false/null, numbers, and quoted strings.
func parseLiteral(raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	case "null":
		return nil, true
	}
	if len(raw) >= 2 {
		if (raw[0] == '\'' && raw[len(raw)-1] == '\'') ||
			(raw[0] == '"' && raw[len(raw)-1] == '"') {
			return raw[1 : len(raw)-1], true
		}
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, true
	}
	return nil, false
}

// strictEqual requires matching kinds as well as values.
func strictEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	default:
		af, aok := asNumber(a)
		bf, bok := asNumber(b)
		return aok && bok && af == bf
	}
}

// looseEqual falls back to comparing canonical string forms when the
// kinds differ (e.g. "5" == 5).
func looseEqual(a, b any) bool {
	if strictEqual(a, b) {
		return true
	}
	return canonical(a) == canonical(b)
}

func canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		if f, ok := asNumber(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return ""
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// truthy mirrors the conventions plugins' JSON data follows: nil,
// false, zero, and the empty string are falsy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := asNumber(v); ok {
			return f != 0
		}
		return true
	}
}
