// internal/api/score.go
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/scoring/aggregate"
	"credit-scoring-workers/internal/scoring/engine"
	"credit-scoring-workers/internal/scoring/field"
)

type previewRequest struct {
	ApplicantData map[string]interface{} `json:"applicantData"`
}

type previewResponse struct {
	ApplicantData map[string]interface{} `json:"applicantData"`
	CreditScore   engine.FactorScore     `json:"creditScore"`
	OverallScore  aggregate.OverallScore `json:"overallScore"`
	TookMs        int64                  `json:"tookMs"`
}

// handleScorePreview runs both scoring paths against an ad-hoc snapshot so an
// operator can see the effect of configuration changes before any applicant
// does. Previews are not audited.
func (s *Server) handleScorePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid preview payload")
		return
	}
	if req.ApplicantData == nil {
		s.writeBadRequest(w, "applicantData is required")
		return
	}

	eng, err := s.buildEngine(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	start := time.Now()
	snap := field.Snapshot(req.ApplicantData)
	extended := eng.CalculateAllFields(snap)
	factorScore := eng.CalculateScore(snap)
	overall := eng.CalculateOverallScore(snap)
	took := time.Since(start)

	metrics.ScoringPasses.WithLabelValues("preview", "ok").Inc()
	metrics.ScoringDuration.WithLabelValues("preview").Observe(took.Seconds())

	s.writeJSON(w, http.StatusOK, previewResponse{
		ApplicantData: extended,
		CreditScore:   factorScore,
		OverallScore:  overall,
		TookMs:        took.Milliseconds(),
	})
}

func (s *Server) buildEngine(r *http.Request) (*engine.Engine, error) {
	defs, err := s.store.LoadFields(r.Context())
	if err != nil {
		return nil, err
	}
	factors, err := s.store.LoadFactors(r.Context())
	if err != nil {
		return nil, err
	}

	registry, err := field.NewRegistryWith(defs)
	if err != nil {
		return nil, err
	}

	opts := engine.Options{
		BaseScore:        s.scoring.BaseScore,
		BonusPoints:      s.scoring.BonusPoints,
		BonusFactorShare: s.scoring.BonusFactorShare,
		BonusScoreShare:  s.scoring.BonusScoreShare,
	}
	return engine.New(registry, factors, opts, s.logger), nil
}
