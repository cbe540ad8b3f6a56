// internal/workers/notification/score-decision-notify/models.go
package scoredecisionnotify

type Input struct {
	ApplicantID string  `json:"applicantId"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	CreditScore float64 `json:"creditScore"`
	MaxScore    float64 `json:"maxScore"`
	Decision    string  `json:"decision,omitempty"`
	Priority    string  `json:"priority,omitempty"`
}

type Output struct {
	NotificationID string `json:"notificationId"`
	Decision       string `json:"decision"`
	Status         string `json:"status"` // "sent", "failed", "disabled"
	SentAt         string `json:"sentAt"` // ISO 8601
}

// Decisions
const (
	DecisionApproved = "approved"
	DecisionReview   = "review"
	DecisionDeclined = "declined"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)
