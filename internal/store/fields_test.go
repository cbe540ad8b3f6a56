// internal/store/fields_test.go
package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, nil, time.Minute, logger.NewTestLogger(t)), mock
}

func fieldRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "label", "kind", "membership", "weight", "enabled",
		"min_value", "max_value", "optimal_value",
		"formula", "dependencies", "display_format",
	})
}

func TestListFields(t *testing.T) {
	s, mock := newTestStore(t)

	rows := fieldRows().
		AddRow("annualIncome", "Annual Income", "numeric", "base", 8.0, true,
			nil, nil, nil, "", "[]", "currency").
		AddRow("debtToIncomeRatio", "Debt-to-Income Ratio", "derived", "derived", 10.0, true,
			nil, nil, nil,
			"(monthlyDebtPayments * 12) / annualIncome",
			`["monthlyDebtPayments","annualIncome"]`, "percent")

	mock.ExpectQuery(`SELECT (.+) FROM scoring_fields`).WillReturnRows(rows)

	defs, err := s.ListFields(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "annualIncome", defs[0].ID)
	assert.Equal(t, field.KindNumeric, defs[0].Kind)
	assert.Nil(t, defs[0].Min)
	assert.Empty(t, defs[0].Dependencies)

	assert.Equal(t, field.KindDerived, defs[1].Kind)
	assert.True(t, defs[1].IsDerived())
	assert.Equal(t, []string{"monthlyDebtPayments", "annualIncome"}, defs[1].Dependencies)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetField(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM scoring_fields WHERE id = \$1`).
		WithArgs("openAccounts").
		WillReturnRows(fieldRows().AddRow(
			"openAccounts", "Open Accounts", "numeric", "base", 3.0, true,
			nil, nil, 4.0, "", "[]", ""))

	def, err := s.GetField(context.Background(), "openAccounts")
	require.NoError(t, err)
	require.NotNil(t, def.Optimal)
	assert.Equal(t, 4.0, *def.Optimal)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetField_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM scoring_fields WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetField(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestCreateField(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO scoring_fields`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateField(context.Background(), field.Definition{
		ID: "loanAmount", Label: "Loan Amount",
		Kind: field.KindNumeric, Membership: field.MembershipBase,
		Weight: 4, Enabled: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateField_Conflict(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`INSERT INTO scoring_fields`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateField(context.Background(), field.Definition{
		ID: "age", Kind: field.KindNumeric, Membership: field.MembershipBase, Enabled: true,
	})
	assert.ErrorIs(t, err, ErrFieldConflict)
}

func TestUpdateField(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE scoring_fields`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateField(context.Background(), field.Definition{
		ID: "age", Kind: field.KindNumeric, Membership: field.MembershipBase,
		Weight: 6, Enabled: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateField_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE scoring_fields`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateField(context.Background(), field.Definition{
		ID: "ghost", Kind: field.KindNumeric, Membership: field.MembershipBase,
	})
	assert.ErrorIs(t, err, ErrFieldNotFound)
}

func TestDeleteField(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM scoring_fields WHERE id = \$1`).
		WithArgs("age").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.DeleteField(context.Background(), "age"))

	mock.ExpectExec(`DELETE FROM scoring_fields WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, s.DeleteField(context.Background(), "ghost"), ErrFieldNotFound)
}
