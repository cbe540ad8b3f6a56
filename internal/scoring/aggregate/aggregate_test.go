// internal/scoring/aggregate/aggregate_test.go
package aggregate

import (
	"testing"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"
	"credit-scoring-workers/internal/scoring/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAggregator(t *testing.T, defs []field.Definition) *Aggregator {
	t.Helper()
	reg, err := field.NewRegistryWith(defs)
	require.NoError(t, err)
	return NewAggregator(reg, normalize.NewNormalizer(reg, logger.NewTestLogger(t)))
}

func TestAggregate_WeightedContributions(t *testing.T) {
	agg := newAggregator(t, []field.Definition{
		{ID: "debtToIncomeRatio", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Formula: "1", Weight: 10, Enabled: true},
		{ID: "creditUtilization", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Formula: "1", Weight: 9, Enabled: true},
	})

	score := agg.Aggregate(field.Snapshot{
		"debtToIncomeRatio": 0.192,
		"creditUtilization": 0.3,
	})

	require.Len(t, score.Details, 2)

	// dti: inverse-normalized 0.808 × weight 10 = 8.08
	assert.Equal(t, "debtToIncomeRatio", score.Details[0].Field)
	assert.InDelta(t, 8.08, score.Details[0].Weighted, 1e-9)

	// utilization: 0.7 × 9 = 6.3
	assert.Equal(t, "creditUtilization", score.Details[1].Field)
	assert.InDelta(t, 6.3, score.Details[1].Weighted, 1e-9)

	assert.InDelta(t, 14.38, score.TotalScore, 1e-9)
	assert.InDelta(t, 19.0, score.MaxScore, 1e-9)
	assert.InDelta(t, 14.38/19*100, score.Percentage, 1e-9)
}

func TestAggregate_NoWeightedFields(t *testing.T) {
	agg := newAggregator(t, []field.Definition{
		{ID: "age", Kind: field.KindNumeric, Weight: 0, Enabled: true},
		{ID: "annualIncome", Kind: field.KindNumeric, Weight: 5, Enabled: false},
	})

	score := agg.Aggregate(field.Snapshot{"age": 30, "annualIncome": 60000})

	assert.Zero(t, score.TotalScore)
	assert.Zero(t, score.MaxScore)
	assert.Zero(t, score.Percentage, "no division by zero when maxScore is 0")
	assert.Empty(t, score.Details)
}

func TestAggregate_DetailsSortedByContribution(t *testing.T) {
	agg := newAggregator(t, []field.Definition{
		{ID: "creditScore", Kind: field.KindNumeric, Weight: 3, Enabled: true},
		{ID: "age", Kind: field.KindNumeric, Weight: 10, Enabled: true},
		{ID: "annualIncome", Kind: field.KindNumeric, Weight: 2, Enabled: true},
	})

	score := agg.Aggregate(field.Snapshot{
		"creditScore":  850, // 1.0 × 3 = 3
		"age":          40,  // 1.0 × 10 = 10
		"annualIncome": 100000, // 0.5 × 2 = 1
	})

	require.Len(t, score.Details, 3)
	assert.Equal(t, "age", score.Details[0].Field)
	assert.Equal(t, "creditScore", score.Details[1].Field)
	assert.Equal(t, "annualIncome", score.Details[2].Field)
}

func TestAggregate_Deterministic(t *testing.T) {
	agg := newAggregator(t, []field.Definition{
		{ID: "age", Kind: field.KindNumeric, Weight: 5, Enabled: true},
		{ID: "creditScore", Kind: field.KindNumeric, Weight: 5, Enabled: true},
	})

	snap := field.Snapshot{"age": 30, "creditScore": 700}

	first := agg.Aggregate(snap)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, agg.Aggregate(snap))
	}
}

func TestAggregate_MissingValuesScoreZero(t *testing.T) {
	agg := newAggregator(t, []field.Definition{
		{ID: "creditScore", Kind: field.KindNumeric, Weight: 4, Enabled: true},
	})

	score := agg.Aggregate(field.Snapshot{})

	require.Len(t, score.Details, 1)
	assert.Zero(t, score.Details[0].Normalized)
	assert.Zero(t, score.TotalScore)
	assert.InDelta(t, 4.0, score.MaxScore, 1e-9)
}
