// internal/workers/scoring/validate-applicant-data/handler.go
package validateapplicantdata

import (
	"context"
	"encoding/json"
	"fmt"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-applicant-data"
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

// execute checks the applicant snapshot against the field registry. A failed
// check becomes a validation error in the output, not a failed job; only a
// registry that cannot be loaded fails the job.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	defs, err := h.loader.LoadFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field registry: %w", err)
	}

	data := input.ApplicantData
	if data == nil {
		data = make(map[string]interface{})
	}

	validated := make(map[string]interface{})
	var validationErrors []ValidationError

	for _, def := range defs {
		if !def.Enabled || def.IsDerived() {
			// Derived values are computed downstream; inbound copies are
			// dropped so stale client-side derivations never leak in.
			continue
		}

		raw, present := data[def.ID]
		if !present || raw == nil {
			if def.Weight > 0 {
				validationErrors = append(validationErrors, ValidationError{
					Field:   def.ID,
					Code:    CodeMissingRequired,
					Message: fmt.Sprintf("%s is required", def.ID),
				})
			}
			continue
		}

		switch def.Kind {
		case field.KindNumeric:
			value, ok := field.ToNumber(raw)
			if !ok {
				validationErrors = append(validationErrors, ValidationError{
					Field:   def.ID,
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("%s must be numeric", def.ID),
				})
				continue
			}
			if outOfRange(def, value) {
				validationErrors = append(validationErrors, ValidationError{
					Field:   def.ID,
					Code:    CodeOutOfRange,
					Message: fmt.Sprintf("%s is outside its configured range", def.ID),
				})
				continue
			}
			validated[def.ID] = value
		case field.KindCategorical:
			str, ok := raw.(string)
			if !ok || str == "" {
				validationErrors = append(validationErrors, ValidationError{
					Field:   def.ID,
					Code:    CodeInvalidType,
					Message: fmt.Sprintf("%s must be a non-empty string", def.ID),
				})
				continue
			}
			validated[def.ID] = str
		default:
			validated[def.ID] = raw
		}
	}

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"isValid":     isValid,
		"errorCount":  len(validationErrors),
	})

	return &Output{
		IsValid:          isValid,
		ValidatedData:    validated,
		ValidationErrors: validationErrors,
	}, nil
}

func outOfRange(def field.Definition, value float64) bool {
	if def.Min != nil && value < *def.Min {
		return true
	}
	if def.Max != nil && value > *def.Max {
		return true
	}
	return false
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
