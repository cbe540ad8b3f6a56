// internal/scoring/derive/evaluator_test.go
package derive

import (
	"testing"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *field.Registry {
	t.Helper()
	reg, err := field.NewRegistryWith([]field.Definition{
		{ID: "monthlyDebtPayments", Kind: field.KindNumeric, Membership: field.MembershipBase, Enabled: true},
		{ID: "annualIncome", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 8, Enabled: true},
		{ID: "creditCardBalances", Kind: field.KindNumeric, Membership: field.MembershipBase, Enabled: true},
		{ID: "totalCreditLimit", Kind: field.KindNumeric, Membership: field.MembershipBase, Enabled: true},
		{
			ID: "debtToIncomeRatio", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 10, Enabled: true,
			Formula:      "(monthlyDebtPayments * 12) / annualIncome",
			Dependencies: []string{"monthlyDebtPayments", "annualIncome"},
		},
		{
			ID: "creditUtilization", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 9, Enabled: true,
			Formula:      "creditCardBalances / totalCreditLimit",
			Dependencies: []string{"creditCardBalances", "totalCreditLimit"},
		},
		{
			ID: "estimatedCreditScore", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 7, Enabled: true,
			Formula:      "300 + (1 - debtToIncomeRatio) * 300 + (1 - creditUtilization) * 250",
			Dependencies: []string{"debtToIncomeRatio", "creditUtilization"},
		},
	})
	require.NoError(t, err)
	return reg
}

func TestEvaluate_DebtToIncomeScenario(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	snap := field.Snapshot{
		"monthlyDebtPayments": 1200,
		"annualIncome":        75000,
	}

	v, err := eval.Evaluate("debtToIncomeRatio", snap)
	require.NoError(t, err)
	assert.InDelta(t, 0.192, v, 1e-9)
}

func TestEvaluate_CreditUtilizationScenario(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	snap := field.Snapshot{
		"creditCardBalances": 15000,
		"totalCreditLimit":   50000,
	}

	v, err := eval.Evaluate("creditUtilization", snap)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, v, 1e-9)
}

func TestEvaluate_MissingDependency(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	tests := []struct {
		name string
		snap field.Snapshot
	}{
		{"absent", field.Snapshot{"monthlyDebtPayments": 1200}},
		{"nil value", field.Snapshot{"monthlyDebtPayments": 1200, "annualIncome": nil}},
		{"non-numeric", field.Snapshot{"monthlyDebtPayments": 1200, "annualIncome": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Evaluate("debtToIncomeRatio", tt.snap)
			assert.ErrorIs(t, err, ErrMissingDependency)
		})
	}
}

func TestEvaluate_NonFiniteResult(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	snap := field.Snapshot{
		"monthlyDebtPayments": 1200,
		"annualIncome":        0,
	}

	_, err := eval.Evaluate("debtToIncomeRatio", snap)
	assert.ErrorIs(t, err, ErrInvalidResult)
}

func TestEvaluate_NotDerived(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	_, err := eval.Evaluate("annualIncome", field.Snapshot{})
	assert.ErrorIs(t, err, ErrNotDerived)
}

func TestCalculateAllFields_ChainedDerivations(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	snap := field.Snapshot{
		"monthlyDebtPayments": 1200,
		"annualIncome":        75000,
		"creditCardBalances":  15000,
		"totalCreditLimit":    50000,
	}

	out := eval.CalculateAllFields(snap)

	require.Contains(t, out, "debtToIncomeRatio")
	require.Contains(t, out, "creditUtilization")

	// estimatedCreditScore depends on the other two derived fields and must
	// resolve in the same pass.
	require.Contains(t, out, "estimatedCreditScore")
	estimate, ok := out.Number("estimatedCreditScore")
	require.True(t, ok)
	assert.InDelta(t, 300+(1-0.192)*300+(1-0.3)*250, estimate, 1e-9)

	// Input snapshot must not be mutated.
	assert.NotContains(t, snap, "debtToIncomeRatio")
}

func TestCalculateAllFields_SkipsUncalculable(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	// Utilization inputs are absent: the field and its dependents must be
	// absent from the output, not present as 0 or NaN.
	snap := field.Snapshot{
		"monthlyDebtPayments": 1200,
		"annualIncome":        75000,
	}

	out := eval.CalculateAllFields(snap)
	assert.Contains(t, out, "debtToIncomeRatio")
	assert.NotContains(t, out, "creditUtilization")
	assert.NotContains(t, out, "estimatedCreditScore")
}

func TestCalculateAllFields_Idempotent(t *testing.T) {
	eval := NewEvaluator(testRegistry(t), logger.NewTestLogger(t))

	snap := field.Snapshot{
		"monthlyDebtPayments": 1200,
		"annualIncome":        75000,
		"creditCardBalances":  15000,
		"totalCreditLimit":    50000,
	}

	once := eval.CalculateAllFields(snap)
	twice := eval.CalculateAllFields(once)
	assert.Equal(t, once, twice)
}
