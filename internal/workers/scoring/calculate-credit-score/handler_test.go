// internal/workers/scoring/calculate-credit-score/handler_test.go
package calculatecreditscore

import (
	"context"
	"errors"
	"testing"

	"credit-scoring-workers/internal/common/config"
	errs "credit-scoring-workers/internal/common/errors"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/engine"
	"credit-scoring-workers/internal/scoring/factor"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	defs       []field.Definition
	factors    []factor.Config
	defsErr    error
	factorsErr error
}

func (s *stubLoader) LoadFields(_ context.Context) ([]field.Definition, error) {
	return s.defs, s.defsErr
}

func (s *stubLoader) LoadFactors(_ context.Context) ([]factor.Config, error) {
	return s.factors, s.factorsErr
}

func testLoader() *stubLoader {
	return &stubLoader{
		defs: []field.Definition{
			{ID: "age", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 5, Enabled: true},
			{ID: "annualIncome", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 8, Enabled: true},
			{ID: "monthlyDebtPayments", Kind: field.KindNumeric, Membership: field.MembershipBase, Enabled: true},
			{
				ID: "debtToIncomeRatio", Kind: field.KindDerived, Membership: field.MembershipDerived,
				Weight: 10, Enabled: true,
				Formula:      "(monthlyDebtPayments * 12) / annualIncome",
				Dependencies: []string{"monthlyDebtPayments", "annualIncome"},
			},
		},
		factors: []factor.Config{
			{
				Key: "age", Name: "Age", MaxPoints: 15, Weight: 1,
				Category: factor.CategoryDemographic, CalculationType: factor.CalculationThreshold,
				Thresholds: `{"optimal": {"min": 25, "max": 55, "points": 15}}`,
				Enabled:    true,
			},
			{
				Key: "debtToIncomeRatio", Name: "DTI", MaxPoints: 30, Weight: 1,
				Category: factor.CategoryFinancial, CalculationType: factor.CalculationThreshold,
				Thresholds: `{"excellent": {"max": 0.2, "points": 30}, "good": {"min": 0.2, "max": 0.35, "points": 20}}`,
				Enabled:    true,
			},
		},
	}
}

func createTestHandler(t *testing.T, loader ConfigLoader) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), loader, nil, nil, logger.NewTestLogger(t))
}

func TestExecute_FullCalculation(t *testing.T) {
	h := createTestHandler(t, testLoader())

	output, err := h.Execute(context.Background(), &Input{
		ApplicantID: "app-1",
		ApplicantData: map[string]interface{}{
			"age":                 35,
			"annualIncome":        75000,
			"monthlyDebtPayments": 1200,
		},
	})
	require.NoError(t, err)

	// Base 300 + age 15 + dti band 30 (0.192 falls in the excellent band).
	assert.Equal(t, "app-1", output.ApplicantID)
	assert.InDelta(t, 345.0, output.CreditScore, 1e-9)
	assert.InDelta(t, 300.0, output.BaseScore, 1e-9)
	assert.InDelta(t, 300+15+30, output.MaxScore, 1e-9)
	assert.InDelta(t, 15.0, output.Breakdown.Demographic, 1e-9)
	assert.InDelta(t, 30.0, output.Breakdown.Financial, 1e-9)
	require.Len(t, output.Factors, 2)
	assert.NotEmpty(t, output.CalculatedAt)

	// The weighted path runs over the same derived snapshot.
	assert.Greater(t, output.OverallScore.TotalScore, 0.0)
	assert.InDelta(t, 23.0, output.OverallScore.MaxScore, 1e-9)
}

func TestExecute_ConfigLoadFailure(t *testing.T) {
	loader := testLoader()
	loader.defsErr = errors.New("connection refused")
	h := createTestHandler(t, loader)

	_, err := h.Execute(context.Background(), &Input{})
	var stdErr *errs.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errs.ErrCodeScoringConfigLoadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)

	loader = testLoader()
	loader.factorsErr = errors.New("connection refused")
	h = createTestHandler(t, loader)

	_, err = h.Execute(context.Background(), &Input{})
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errs.ErrCodeScoringConfigLoadFailed, stdErr.Code)
}

func TestExecute_CyclicConfigurationFails(t *testing.T) {
	loader := testLoader()
	loader.defs = []field.Definition{
		{
			ID: "a", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Formula: "b", Dependencies: []string{"b"}, Enabled: true,
		},
		{
			ID: "b", Kind: field.KindDerived, Membership: field.MembershipDerived,
			Formula: "a", Dependencies: []string{"a"}, Enabled: true,
		},
	}
	h := createTestHandler(t, loader)

	_, err := h.Execute(context.Background(), &Input{})
	var stdErr *errs.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errs.ErrCodeScoringConfigMalformed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestExecute_MalformedFactorDegradesNotFails(t *testing.T) {
	loader := testLoader()
	loader.factors = append(loader.factors, factor.Config{
		Key: "age", Name: "Broken", MaxPoints: 50, Weight: 1,
		CalculationType: factor.CalculationThreshold,
		Thresholds:      `{"broken`,
		Enabled:         true,
	})
	h := createTestHandler(t, loader)

	output, err := h.Execute(context.Background(), &Input{
		ApplicantData: map[string]interface{}{
			"age":                 35,
			"annualIncome":        75000,
			"monthlyDebtPayments": 1200,
		},
	})
	require.NoError(t, err)

	// Score unchanged; max includes the broken factor's configured potential.
	assert.InDelta(t, 345.0, output.CreditScore, 1e-9)
	assert.InDelta(t, 300+15+30+50, output.MaxScore, 1e-9)
}

func TestExecute_EmptySnapshot(t *testing.T) {
	h := createTestHandler(t, testLoader())

	output, err := h.Execute(context.Background(), &Input{ApplicantID: "app-2"})
	require.NoError(t, err)

	// No factor can score, so only the base offset remains.
	assert.InDelta(t, 300.0, output.CreditScore, 1e-9)
}

func TestLoadConfigFrom(t *testing.T) {
	cfg := LoadConfigFrom(config.ScoringConfig{
		BaseScore:        250,
		BonusPoints:      10,
		BonusFactorShare: 0.9,
		BonusScoreShare:  0.75,
	})

	assert.Equal(t, engine.Options{
		BaseScore:        250,
		BonusPoints:      10,
		BonusFactorShare: 0.9,
		BonusScoreShare:  0.75,
	}, cfg.Options)
}
