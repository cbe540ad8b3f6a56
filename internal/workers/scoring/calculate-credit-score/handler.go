// internal/workers/scoring/calculate-credit-score/handler.go
package calculatecreditscore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-scoring-workers/internal/audit"
	errs "credit-scoring-workers/internal/common/errors"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/common/observability"
	"credit-scoring-workers/internal/scoring/engine"
	"credit-scoring-workers/internal/scoring/factor"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-credit-score"
)

// ConfigLoader provides the scoring configuration the engine is built from.
type ConfigLoader interface {
	LoadFields(ctx context.Context) ([]field.Definition, error)
	LoadFactors(ctx context.Context) ([]factor.Config, error)
}

type Handler struct {
	config  *Config
	loader  ConfigLoader
	auditor *audit.Indexer
	obs     *observability.Observability
	errors  *errs.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, loader ConfigLoader, auditor *audit.Indexer, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		loader:  loader,
		auditor: auditor,
		obs:     obs,
		errors:  errs.NewErrorHandler(scoped),
		logger:  scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job,
			errs.NewApplicantDataInvalidError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// execute assembles an engine from the stored configuration and runs both
// scoring paths. Individual factor failures degrade inside the engine; only
// an unusable configuration fails the job.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	eng, err := h.buildEngine(ctx)
	if err != nil {
		metrics.ScoringPasses.WithLabelValues("factor", "config_error").Inc()
		return nil, err
	}

	snap := field.Snapshot(input.ApplicantData)
	factorScore := eng.CalculateScore(snap)
	overall := eng.CalculateOverallScore(snap)

	took := time.Since(start)
	metrics.ScoringPasses.WithLabelValues("factor", "ok").Inc()
	metrics.ScoringDuration.WithLabelValues("factor").Observe(took.Seconds())
	if h.obs != nil {
		h.obs.RecordScoreCalculated(ctx, "ok")
		h.obs.RecordScoreDuration(ctx, took, "ok")
	}

	h.auditor.Store(ctx, audit.FromFactorScore(input.ApplicantID, factorScore, took))

	h.logger.Info("credit score calculated", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"creditScore": factorScore.TotalScore,
		"maxScore":    factorScore.MaxScore,
		"bonus":       factorScore.Bonus,
		"durationMs":  took.Milliseconds(),
	})

	return &Output{
		ApplicantID:  input.ApplicantID,
		CreditScore:  factorScore.TotalScore,
		MaxScore:     factorScore.MaxScore,
		BaseScore:    factorScore.BaseScore,
		Bonus:        factorScore.Bonus,
		Breakdown:    factorScore.Breakdown,
		Factors:      factorScore.Results,
		OverallScore: overall,
		CalculatedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) buildEngine(ctx context.Context) (*engine.Engine, error) {
	defs, err := h.loader.LoadFields(ctx)
	if err != nil {
		return nil, errs.NewScoringConfigLoadFailedError(err)
	}
	factors, err := h.loader.LoadFactors(ctx)
	if err != nil {
		return nil, errs.NewScoringConfigLoadFailedError(err)
	}

	registry, err := field.NewRegistryWith(defs)
	if err != nil {
		return nil, errs.NewScoringConfigMalformedError(err.Error())
	}

	return engine.New(registry, factors, h.config.Options, h.logger), nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
