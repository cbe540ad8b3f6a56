// internal/store/seed.go
package store

import (
	"context"
	"errors"
	"fmt"

	"credit-scoring-workers/internal/scoring/factor"
	"credit-scoring-workers/internal/scoring/field"
)

func ptr(v float64) *float64 { return &v }

// DefaultFields is the field registry an empty installation starts from.
func DefaultFields() []field.Definition {
	return []field.Definition{
		{ID: "age", Label: "Age", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 5, Enabled: true},
		{ID: "annualIncome", Label: "Annual Income", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 8, Enabled: true, DisplayFormat: "currency"},
		{ID: "employmentStatus", Label: "Employment Status", Kind: field.KindCategorical, Membership: field.MembershipBase, Weight: 6, Enabled: true},
		{ID: "education", Label: "Education", Kind: field.KindCategorical, Membership: field.MembershipBase, Weight: 3, Enabled: true},
		{ID: "homeOwnership", Label: "Home Ownership", Kind: field.KindCategorical, Membership: field.MembershipBase, Weight: 4, Enabled: true},
		{ID: "monthlyDebtPayments", Label: "Monthly Debt Payments", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 0, Enabled: true, DisplayFormat: "currency"},
		{ID: "creditCardBalances", Label: "Credit Card Balances", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 0, Enabled: true, DisplayFormat: "currency"},
		{ID: "totalCreditLimit", Label: "Total Credit Limit", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 0, Enabled: true, DisplayFormat: "currency"},
		{ID: "creditHistoryLength", Label: "Credit History Length", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 5, Enabled: true},
		{ID: "openAccounts", Label: "Open Accounts", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 3, Optimal: ptr(4), Enabled: true},
		{ID: "latePayments", Label: "Late Payments", Kind: field.KindNumeric, Membership: field.MembershipBase, Weight: 0, Enabled: true},
		{
			ID: "debtToIncomeRatio", Label: "Debt-to-Income Ratio",
			Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 10, Enabled: true, DisplayFormat: "percent",
			Formula:      "(monthlyDebtPayments * 12) / annualIncome",
			Dependencies: []string{"monthlyDebtPayments", "annualIncome"},
		},
		{
			ID: "creditUtilization", Label: "Credit Utilization",
			Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 9, Enabled: true, DisplayFormat: "percent",
			Formula:      "creditCardBalances / totalCreditLimit",
			Dependencies: []string{"creditCardBalances", "totalCreditLimit"},
		},
		{
			ID: "estimatedCreditScore", Label: "Estimated Credit Score",
			Kind: field.KindDerived, Membership: field.MembershipDerived,
			Weight: 7, Enabled: true,
			Formula:      "300 + (1 - debtToIncomeRatio) * 300 + (1 - creditUtilization) * 250",
			Dependencies: []string{"debtToIncomeRatio", "creditUtilization"},
		},
	}
}

// DefaultFactors is the factor configuration an empty installation starts
// from.
func DefaultFactors() []factor.Config {
	return []factor.Config{
		{
			Key: "age", Name: "Age", MaxPoints: 15, Weight: 1,
			Category: factor.CategoryDemographic, CalculationType: factor.CalculationThreshold,
			Thresholds: `{"optimal": {"min": 25, "max": 55, "points": 15}, "young": {"min": 18, "max": 24, "points": 8}, "senior": {"min": 56, "max": 75, "points": 10}}`,
			Enabled:    true,
		},
		{
			Key: "annualIncome", Name: "Annual Income", MaxPoints: 25, Weight: 1.2,
			Category: factor.CategoryFinancial, CalculationType: factor.CalculationLinear,
			Thresholds: `{"multiplier": 0.0002, "cap": 25}`,
			Enabled:    true,
		},
		{
			Key: "employmentStatus", Name: "Employment Status", MaxPoints: 20, Weight: 1,
			Category: factor.CategoryEmployment, CalculationType: factor.CalculationCategorical,
			Thresholds: `{"Employed": 20, "Self-Employed": 15, "Retired": 12, "Student": 8, "Unemployed": 2}`,
			Enabled:    true,
		},
		{
			Key: "debtToIncomeRatio", Name: "Debt-to-Income Ratio", MaxPoints: 30, Weight: 1.5,
			Category: factor.CategoryFinancial, CalculationType: factor.CalculationThreshold,
			Thresholds: `{"excellent": {"max": 0.2, "points": 30}, "good": {"min": 0.2, "max": 0.35, "points": 20}, "fair": {"min": 0.35, "max": 0.5, "points": 10}}`,
			Enabled:    true,
		},
		{
			Key: "creditUtilization", Name: "Credit Utilization", MaxPoints: 25, Weight: 1.3,
			Category: factor.CategoryCredit, CalculationType: factor.CalculationThreshold,
			Thresholds: `{"excellent": {"max": 0.1, "points": 25}, "good": {"min": 0.1, "max": 0.3, "points": 18}, "fair": {"min": 0.3, "max": 0.5, "points": 8}}`,
			Enabled:    true,
		},
		{
			Key: "creditHistoryLength", Name: "Credit History Length", MaxPoints: 20, Weight: 1,
			Category: factor.CategoryCredit, CalculationType: factor.CalculationLinear,
			Thresholds: `{"multiplier": 2, "cap": 20}`,
			Enabled:    true,
		},
		{
			Key: "openAccounts", Name: "Open Accounts", MaxPoints: 10, Weight: 0.8,
			Category: factor.CategoryCredit, CalculationType: factor.CalculationOptimal,
			OptimalValue: ptr(4),
			Enabled:      true,
		},
		{
			Key: "latePayments", Name: "Late Payments", MaxPoints: -20, Weight: 1,
			Category: factor.CategoryCredit, CalculationType: factor.CalculationLinear,
			Thresholds: `{"penalty": -4}`,
			Enabled:    true,
		},
	}
}

// Seed inserts the default fields and factors, skipping any that already
// exist. It is safe to run on every startup.
func (s *Store) Seed(ctx context.Context) error {
	for _, def := range DefaultFields() {
		if err := s.CreateField(ctx, def); err != nil && !errors.Is(err, ErrFieldConflict) {
			return fmt.Errorf("seed field %q: %w", def.ID, err)
		}
	}
	for _, cfg := range DefaultFactors() {
		if err := s.CreateFactor(ctx, cfg); err != nil && !errors.Is(err, ErrFieldConflict) {
			return fmt.Errorf("seed factor %q: %w", cfg.Key, err)
		}
	}
	return nil
}
