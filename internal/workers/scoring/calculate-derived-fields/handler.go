// internal/workers/scoring/calculate-derived-fields/handler.go
package calculatederivedfields

import (
	"context"
	"encoding/json"
	"fmt"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/derive"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-derived-fields"
)

// FieldLoader provides the current field registry contents.
type FieldLoader interface {
	LoadFields(ctx context.Context) ([]field.Definition, error)
}

type Handler struct {
	config *Config
	loader FieldLoader
	logger logger.Logger
}

func NewHandler(config *Config, loader FieldLoader, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		loader: loader,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "SCORING_CONFIG_LOAD_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute fills in every derivable field. A field whose inputs are missing is
// reported as skipped, never as an error; the shape of the output mirrors the
// input plus the derived values.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	defs, err := h.loader.LoadFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field registry: %w", err)
	}

	registry, err := field.NewRegistryWith(defs)
	if err != nil {
		return nil, fmt.Errorf("build field registry: %w", err)
	}

	evaluator := derive.NewEvaluator(registry, h.logger)
	extended := evaluator.CalculateAllFields(field.Snapshot(input.ApplicantData))

	var calculated, skipped []string
	for _, def := range defs {
		if !def.IsDerived() || !def.Enabled {
			continue
		}
		if _, ok := extended[def.ID]; ok {
			if _, present := input.ApplicantData[def.ID]; !present {
				calculated = append(calculated, def.ID)
			}
		} else {
			skipped = append(skipped, def.ID)
		}
	}

	h.logger.Info("derived fields calculated", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"calculated":  len(calculated),
		"skipped":     len(skipped),
	})

	return &Output{
		ApplicantData:    extended,
		CalculatedFields: calculated,
		SkippedFields:    skipped,
	}, nil
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
