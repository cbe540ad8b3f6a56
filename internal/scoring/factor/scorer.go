// internal/scoring/factor/scorer.go
package factor

import (
	"fmt"
	"math"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/scoring/field"
)

// Result is the outcome of scoring one factor. Points are clamped to the
// factor's configured range.
type Result struct {
	Key      string      `json:"key"`
	Name     string      `json:"name"`
	Category Category    `json:"category"`
	Points   float64     `json:"points"`
	Weight   float64     `json:"weight"`
	Weighted float64     `json:"weightedScore"`
	Value    interface{} `json:"value"`
}

// Scorer evaluates factor configurations against applicant snapshots. Every
// failure mode of a single factor (missing value, malformed payload, unknown
// category) degrades that factor to zero points; nothing here ever aborts
// the remaining factors.
type Scorer struct {
	logger logger.Logger
}

func NewScorer(log logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// ScoreFactor computes points for one factor.
func (s *Scorer) ScoreFactor(cfg Config, snap field.Snapshot) Result {
	result := Result{
		Key:      cfg.Key,
		Name:     cfg.Name,
		Category: cfg.Category,
		Weight:   cfg.Weight,
		Value:    snap[cfg.Key],
	}

	var points float64
	var err error

	switch cfg.CalculationType {
	case CalculationLinear:
		points, err = s.scoreLinear(cfg, snap)
	case CalculationThreshold:
		points, err = s.scoreThreshold(cfg, snap)
	case CalculationCategorical:
		points, err = s.scoreCategorical(cfg, snap)
	case CalculationOptimal:
		points, err = s.scoreOptimal(cfg, snap)
	default:
		err = fmt.Errorf("unknown calculation type %q", cfg.CalculationType)
	}

	if err != nil {
		s.logger.Warn("factor degraded to zero points", map[string]interface{}{
			"factor": cfg.Key,
			"type":   string(cfg.CalculationType),
			"reason": err.Error(),
		})
		metrics.ScoringFactorFailures.WithLabelValues(cfg.Key, "malformed_config").Inc()
		points = 0
	}

	result.Points = clampPoints(points, cfg.MaxPoints)
	result.Weighted = result.Points * cfg.Weight
	return result
}

// scoreLinear handles the linear strategy, including the named overrides for
// well-known factor keys.
func (s *Scorer) scoreLinear(cfg Config, snap field.Snapshot) (float64, error) {
	payload, err := parseLinearPayload(cfg.Thresholds)
	if err != nil {
		return 0, err
	}

	value, ok := snap.Number(cfg.Key)
	if !ok {
		return 0, nil // missing value: zero points, not an error
	}

	// Penalty factors: per-unit negative penalty, e.g. late payment counts.
	if payload.Penalty != nil {
		return value * *payload.Penalty, nil
	}

	switch cfg.Key {
	case "annualIncome", "monthlyIncome", "income":
		// Capped-and-scaled: multiplier × value, capped.
		multiplier := 0.0001
		if payload.Multiplier != nil {
			multiplier = *payload.Multiplier
		}
		points := value * multiplier
		if payload.Cap != nil {
			points = math.Min(points, *payload.Cap)
		}
		return points, nil
	case "creditHistoryLength", "creditHistoryYears":
		multiplier := 1.0
		if payload.Multiplier != nil {
			multiplier = *payload.Multiplier
		}
		points := value * multiplier
		if payload.Cap != nil {
			points = math.Min(points, *payload.Cap)
		}
		return points, nil
	}

	minValue := 0.0
	if payload.MinValue != nil {
		minValue = *payload.MinValue
	}
	maxValue := cfg.MaxPoints
	if payload.MaxValue != nil {
		maxValue = *payload.MaxValue
	}
	if maxValue <= minValue {
		return 0, fmt.Errorf("linear range is empty (min %v, max %v)", minValue, maxValue)
	}
	return (value - minValue) / (maxValue - minValue) * cfg.MaxPoints, nil
}

// scoreThreshold awards the points of the first declared band containing the
// value. Bands are expected, not enforced, to be non-overlapping.
func (s *Scorer) scoreThreshold(cfg Config, snap field.Snapshot) (float64, error) {
	bands, err := parseThresholdBands(cfg.Thresholds)
	if err != nil {
		return 0, err
	}

	value, ok := snap.Number(cfg.Key)
	if !ok {
		return 0, nil
	}

	for _, band := range bands {
		if band.Contains(value) {
			return band.Points, nil
		}
	}
	return 0, nil // outside all bands
}

// scoreCategorical is a direct dictionary lookup on the value's string form.
func (s *Scorer) scoreCategorical(cfg Config, snap field.Snapshot) (float64, error) {
	table, err := parseCategoricalPayload(cfg.Thresholds)
	if err != nil {
		return 0, err
	}

	str, ok := snap.String(cfg.Key)
	if !ok {
		// Numeric values participate by their string form too.
		if v, numOK := snap.Number(cfg.Key); numOK {
			str = formatNumber(v)
		} else {
			return 0, nil
		}
	}

	points, ok := table[str]
	if !ok {
		return 0, nil // unknown category scores 0
	}
	return points, nil
}

// scoreOptimal awards maxPoints at the optimal value with linear falloff,
// floored at 0. maxDifference defaults to twice the optimal value.
func (s *Scorer) scoreOptimal(cfg Config, snap field.Snapshot) (float64, error) {
	if cfg.OptimalValue == nil {
		return 0, fmt.Errorf("optimal strategy requires optimalValue")
	}

	value, ok := snap.Number(cfg.Key)
	if !ok {
		return 0, nil
	}

	maxDifference := 2 * *cfg.OptimalValue
	if cfg.MaxValue != nil {
		maxDifference = *cfg.MaxValue
	}
	if maxDifference <= 0 {
		return 0, fmt.Errorf("optimal strategy requires a positive maxDifference")
	}

	points := cfg.MaxPoints * (1 - math.Abs(value-*cfg.OptimalValue)/maxDifference)
	return math.Max(points, 0), nil
}

// clampPoints bounds points to [min(0,maxPoints), max(0,maxPoints)], so
// penalty factors (negative maxPoints) can never award positive points and
// never exceed their configured penalty magnitude.
func clampPoints(points, maxPoints float64) float64 {
	lower := math.Min(0, maxPoints)
	upper := math.Max(0, maxPoints)
	if points < lower {
		return lower
	}
	if points > upper {
		return upper
	}
	return points
}

func formatNumber(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
