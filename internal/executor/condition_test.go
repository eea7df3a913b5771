package executor

import (
	"testing"

	"jack/internal/types"
)

func conditionResults() map[string]*types.ExecutionResult {
	return map[string]*types.ExecutionResult{
		"i1": {
			IntentID: "i1",
			Success:  true,
			Data: map[string]any{
				"shouldAct": true,
				"count":     float64(3),
				"name":      "jack",
				"empty":     "",
				"nothing":   nil,
			},
		},
		"i2": {IntentID: "i2", Success: false, Error: "broke"},
	}
}

func TestEvaluateCondition(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		// Strict equality.
		{"i1.data.shouldAct === true", true},
		{"i1.data.shouldAct === false", false},
		{"i1.data.count === 3", true},
		{"i1.data.count === 4", false},
		{"i1.data.name === 'jack'", true},
		{`i1.data.name === "jack"`, true},
		{"i1.data.name === 'other'", false},
		// Strict equality does not cross types.
		{"i1.data.count === '3'", false},
		{"i1.data.shouldAct === 'true'", false},
		// Loose equality does.
		{"i1.data.count == '3'", true},
		{"i1.data.shouldAct == 'true'", true},
		// Negations.
		{"i1.data.name !== 'other'", true},
		{"i1.data.name !== 'jack'", false},
		{"i1.data.count != 4", true},
		// Bare truthiness.
		{"i1.data.shouldAct", true},
		{"i1.data.empty", false},
		{"i1.data.nothing", false},
		{"i1.data.count", true},
		// Null literal.
		{"i1.data.nothing === null", true},
		{"i1.data.name === null", false},
		// Missing intent or field fails closed.
		{"missing.data.field === true", false},
		{"i1.data.absent === true", false},
		{"i1.data.absent", false},
		// Malformed expressions fail closed.
		{"", false},
		{"garbage", false},
		{"i1.result.shouldAct === true", false},
		{"i1.data.shouldAct >= true", false},
		{"i1.data.shouldAct === ", false},
	}
	for _, tc := range tests {
		if got := EvaluateCondition(tc.expr, conditionResults()); got != tc.want {
			t.Errorf("EvaluateCondition(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}
