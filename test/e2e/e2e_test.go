// test/e2e/e2e_test.go
//
// Integration tests against live infrastructure (PostgreSQL, Redis,
// Elasticsearch). They run the worker pipeline end to end through the
// exported Execute entry points, without a Zeebe broker. Set E2E_TESTS=true
// and provide configs/config.yaml to enable them.
package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-scoring-workers/internal/audit"
	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/database"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/store"

	ccs "credit-scoring-workers/internal/workers/scoring/calculate-credit-score"
	cdf "credit-scoring-workers/internal/workers/scoring/calculate-derived-fields"
	vad "credit-scoring-workers/internal/workers/scoring/validate-applicant-data"
)

func skipUnlessE2E(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("E2E_TESTS") != "true" {
		t.Skip("set E2E_TESTS=true to run integration tests")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func newLiveStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	log := logger.NewTestLogger(t)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	ctx := context.Background()
	require.NoError(t, pg.Ping(ctx))
	require.NoError(t, rdb.Ping(ctx))

	st := store.New(pg.DB, rdb.Client, time.Minute, log)
	require.NoError(t, st.EnsureSchema(ctx))
	require.NoError(t, st.Seed(ctx))
	st.InvalidateCache(ctx)
	return st
}

func applicantData() map[string]interface{} {
	return map[string]interface{}{
		"age":                 35,
		"annualIncome":        75000,
		"employmentStatus":    "Employed",
		"monthlyDebtPayments": 1200,
		"creditCardBalances":  3000,
		"totalCreditLimit":    20000,
		"creditHistoryLength": 8,
		"openAccounts":        4,
		"latePayments":        0,
	}
}

func TestScoringPipeline(t *testing.T) {
	cfg := skipUnlessE2E(t)
	st := newLiveStore(t, cfg)
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	// Stage 1: validation against the seeded field registry.
	validator := vad.NewHandler(&vad.Config{Timeout: 10 * time.Second}, st, log)
	validated, err := validator.Execute(ctx, &vad.Input{
		ApplicantID:   "e2e-applicant",
		ApplicantData: applicantData(),
	})
	require.NoError(t, err)
	assert.True(t, validated.IsValid, "seeded defaults must accept a complete snapshot: %v", validated.ValidationErrors)

	// Stage 2: derived fields.
	deriver := cdf.NewHandler(&cdf.Config{Timeout: 10 * time.Second}, st, log)
	derived, err := deriver.Execute(ctx, &cdf.Input{
		ApplicantID:   "e2e-applicant",
		ApplicantData: validated.ValidatedData,
	})
	require.NoError(t, err)
	assert.Contains(t, derived.ApplicantData, "debtToIncomeRatio")
	assert.Contains(t, derived.ApplicantData, "creditUtilization")

	// Stage 3: the score itself, audited to Elasticsearch.
	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, es.Ping())
	auditor := audit.NewIndexer(es.Client, cfg.Scoring.AuditIndex, log)

	scorer := ccs.NewHandler(ccs.LoadConfigFrom(cfg.Scoring), st, auditor, nil, log)
	score, err := scorer.Execute(ctx, &ccs.Input{
		ApplicantID:   "e2e-applicant",
		ApplicantData: derived.ApplicantData,
	})
	require.NoError(t, err)

	assert.Greater(t, score.CreditScore, cfg.Scoring.BaseScore)
	assert.Greater(t, score.MaxScore, score.BaseScore)
	assert.NotEmpty(t, score.Factors)
}

func TestConfigurationRoundTrip(t *testing.T) {
	cfg := skipUnlessE2E(t)
	st := newLiveStore(t, cfg)
	ctx := context.Background()

	defs, err := st.LoadFields(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(defs), len(store.DefaultFields()))

	factors, err := st.LoadFactors(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(factors), len(store.DefaultFactors()))

	// A second load must be served from the Redis snapshot and agree.
	again, err := st.LoadFields(ctx)
	require.NoError(t, err)
	assert.Equal(t, defs, again)
}
