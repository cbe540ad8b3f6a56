// internal/store/factors_test.go
package store

import (
	"context"
	"database/sql"
	"testing"

	"credit-scoring-workers/internal/scoring/factor"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factorRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"key", "name", "max_points", "weight", "category",
		"calculation_type", "thresholds", "optimal_value", "max_value", "enabled",
	})
}

func TestListFactors(t *testing.T) {
	s, mock := newTestStore(t)

	rows := factorRows().
		AddRow("age", "Age", 15.0, 1.0, "demographic", "threshold",
			`{"optimal": {"min": 25, "max": 55, "points": 15}}`, nil, nil, true).
		AddRow("openAccounts", "Open Accounts", 10.0, 0.8, "credit", "optimal",
			"", 4.0, nil, true)

	mock.ExpectQuery(`SELECT (.+) FROM scoring_configs`).WillReturnRows(rows)

	configs, err := s.ListFactors(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, factor.CalculationThreshold, configs[0].CalculationType)
	assert.Equal(t, factor.CategoryDemographic, configs[0].Category)

	require.NotNil(t, configs[1].OptimalValue)
	assert.Equal(t, 4.0, *configs[1].OptimalValue)
	assert.Empty(t, configs[1].Thresholds)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFactor_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM scoring_configs WHERE key = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetFactor(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFactorNotFound)
}

func TestCreateFactor_Conflict(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO scoring_configs`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateFactor(context.Background(), factor.Config{
		Key: "age", MaxPoints: 15, Weight: 1,
		CalculationType: factor.CalculationThreshold, Enabled: true,
	})
	assert.ErrorIs(t, err, ErrFieldConflict)
}

func TestUpdateFactor(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE scoring_configs`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateFactor(context.Background(), factor.Config{
		Key: "age", Name: "Age", MaxPoints: 18, Weight: 1,
		Category: factor.CategoryDemographic, CalculationType: factor.CalculationThreshold,
		Thresholds: `{"optimal": {"min": 25, "max": 55, "points": 18}}`,
		Enabled:    true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFactor_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM scoring_configs WHERE key = \$1`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteFactor(context.Background(), "ghost"), ErrFactorNotFound)
}

func TestSeed_SkipsExisting(t *testing.T) {
	s, mock := newTestStore(t)

	for range DefaultFields() {
		mock.ExpectExec(`INSERT INTO scoring_fields`).
			WillReturnError(&pq.Error{Code: "23505"})
	}
	for range DefaultFactors() {
		mock.ExpectExec(`INSERT INTO scoring_configs`).
			WillReturnError(&pq.Error{Code: "23505"})
	}

	require.NoError(t, s.Seed(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
