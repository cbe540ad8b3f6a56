// internal/common/errors/errors_test.go
package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewScoringConfigLoadFailedError(errors.New("connection refused"))

	bpmnErr := ConvertToBPMNError(stdErr)
	assert.Equal(t, "SCORING_CONFIG_LOAD_FAILED", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "SCORING_CONFIG_LOAD_FAILED", bpmnErr.ErrorVariables["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryable(t *testing.T) {
	stdErr := NewScoringConfigMalformedError("no fields configured")

	bpmnErr := ConvertToBPMNError(stdErr)
	assert.False(t, bpmnErr.Retryable)
	assert.Equal(t, 0, bpmnErr.Retries)
}

func TestGetRetryCount(t *testing.T) {
	assert.Equal(t, 3, GetRetryCount(ErrCodeDatabaseConnectionFailed))
	assert.Equal(t, 2, GetRetryCount(ErrCodeQueryTimeout))
	assert.Equal(t, 0, GetRetryCount(ErrCodeApplicantDataInvalid))
	assert.Equal(t, 0, GetRetryCount(ErrCodeFieldConflict))
}

func TestToErrorVariables(t *testing.T) {
	bpmnErr := &BPMNError{
		Code:      "SCORE_CALCULATION_FAILED",
		Message:   "Score calculation failed",
		Retryable: false,
		ErrorVariables: map[string]interface{}{
			"applicantId": "app-1",
		},
	}

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "SCORE_CALCULATION_FAILED", vars["errorCode"])
	assert.Equal(t, "app-1", vars["applicantId"])
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeScoreCalculationFailed))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "AUDIT", GetErrorCategory(ErrCodeAuditIndexingFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeFieldNotFound))
	assert.Equal(t, "GENERAL", GetErrorCategory("SOMETHING_ELSE"))
}

func TestStandardErrorAsTarget(t *testing.T) {
	var err error = NewFieldNotFoundError("age")

	var stdErr *StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, ErrCodeFieldNotFound, stdErr.Code)
}
