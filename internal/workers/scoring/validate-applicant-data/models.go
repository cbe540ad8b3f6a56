// internal/workers/scoring/validate-applicant-data/models.go
package validateapplicantdata

type Input struct {
	ApplicantID   string                 `json:"applicantId"`
	ApplicantData map[string]interface{} `json:"applicantData"`
}

type Output struct {
	IsValid          bool                   `json:"isValid"`
	ValidatedData    map[string]interface{} `json:"validatedData"`
	ValidationErrors []ValidationError      `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation error codes
const (
	CodeMissingRequired = "MISSING_REQUIRED"
	CodeInvalidType     = "INVALID_TYPE"
	CodeOutOfRange      = "OUT_OF_RANGE"
)
