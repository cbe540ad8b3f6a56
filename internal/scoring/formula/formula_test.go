// internal/scoring/formula/formula_test.go
package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Evaluate(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		vars     map[string]float64
		expected float64
	}{
		{
			name:     "arithmetic precedence",
			text:     "2 + 3 * 4",
			expected: 14,
		},
		{
			name:     "parentheses",
			text:     "(2 + 3) * 4",
			expected: 20,
		},
		{
			name:     "unary minus",
			text:     "-5 + 10",
			expected: 5,
		},
		{
			name:     "identifiers",
			text:     "(monthlyDebtPayments * 12) / annualIncome",
			vars:     map[string]float64{"monthlyDebtPayments": 1200, "annualIncome": 75000},
			expected: 0.192,
		},
		{
			name:     "min builtin",
			text:     "min(income / 1000, 50)",
			vars:     map[string]float64{"income": 75000},
			expected: 50,
		},
		{
			name:     "max builtin",
			text:     "max(score - 100, 0)",
			vars:     map[string]float64{"score": 50},
			expected: 0,
		},
		{
			name:     "Math.min alias",
			text:     "Math.min(a, b)",
			vars:     map[string]float64{"a": 3, "b": 7},
			expected: 3,
		},
		{
			name:     "comparison yields one",
			text:     "income > 50000",
			vars:     map[string]float64{"income": 75000},
			expected: 1,
		},
		{
			name:     "comparison yields zero",
			text:     "income >= 100000",
			vars:     map[string]float64{"income": 75000},
			expected: 0,
		},
		{
			name:     "nested calls",
			text:     "min(max(v, 0), 1)",
			vars:     map[string]float64{"v": 1.7},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.text)
			require.NoError(t, err)

			got, err := expr.Evaluate(tt.vars)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"dangling operator", "1 +"},
		{"unbalanced paren", "(1 + 2"},
		{"unknown function", "Math.pow(2, 3)"},
		{"bad character", "1 $ 2"},
		{"single equals", "a = b"},
		{"min arity", "min(1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			assert.Error(t, err)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	expr, err := Parse("a / b")
	require.NoError(t, err)

	_, err = expr.Evaluate(map[string]float64{"a": 1, "b": 0})
	assert.Error(t, err, "division by zero must not produce Inf")

	_, err = expr.Evaluate(map[string]float64{"a": 1})
	assert.Error(t, err, "unknown identifier must error")
}

func TestExpression_Variables(t *testing.T) {
	expr, err := Parse("min(debt / income, cap) + debt")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"debt", "income", "cap"}, expr.Variables())
}
