// internal/workers/scoring/calculate-derived-fields/models.go
package calculatederivedfields

type Input struct {
	ApplicantID   string                 `json:"applicantId"`
	ApplicantData map[string]interface{} `json:"applicantData"`
}

type Output struct {
	ApplicantData    map[string]interface{} `json:"applicantData"`
	CalculatedFields []string               `json:"calculatedFields"`
	SkippedFields    []string               `json:"skippedFields"`
}
