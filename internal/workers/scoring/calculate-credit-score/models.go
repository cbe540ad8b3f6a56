// internal/workers/scoring/calculate-credit-score/models.go
package calculatecreditscore

import (
	"credit-scoring-workers/internal/scoring/aggregate"
	"credit-scoring-workers/internal/scoring/engine"
	"credit-scoring-workers/internal/scoring/factor"
)

type Input struct {
	ApplicantID   string                 `json:"applicantId"`
	ApplicantData map[string]interface{} `json:"applicantData"`
}

type Output struct {
	ApplicantID string `json:"applicantId"`

	// Configurable factor path.
	CreditScore float64          `json:"creditScore"`
	MaxScore    float64          `json:"maxScore"`
	BaseScore   float64          `json:"baseScore"`
	Bonus       float64          `json:"bonus"`
	Breakdown   engine.Breakdown `json:"breakdown"`
	Factors     []factor.Result  `json:"factors"`

	// Weighted field path.
	OverallScore aggregate.OverallScore `json:"overallScore"`

	CalculatedAt string `json:"calculatedAt"`
}
