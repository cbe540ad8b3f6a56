// Package normalize maps raw or derived field values onto [0,1] goodness
// scores.
package normalize

import (
	"math"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"
)

// NeutralScore is used when a field has no configured bounds, no known
// semantic curve, or an unrecognized category value. Unconfigured fields
// scoring neutral rather than zero is deliberate: the console allows adding
// fields before their bounds are set.
const NeutralScore = 0.5

// Normalizer selects a normalization strategy per field. Strategy priority:
// configured min/max bounds, configured optimal, semantic override curve,
// categorical lookup, neutral fallback.
type Normalizer struct {
	registry *field.Registry
	logger   logger.Logger
}

func NewNormalizer(registry *field.Registry, log logger.Logger) *Normalizer {
	return &Normalizer{registry: registry, logger: log}
}

// Normalize returns a score in [0,1] for the given field value. Missing,
// nil or non-numeric values on a numeric path normalize to 0; the clamp is
// applied on every path.
func (n *Normalizer) Normalize(fieldID string, value interface{}) float64 {
	def, ok := n.registry.Get(fieldID)
	if !ok {
		n.logger.Debug("normalizing unregistered field", map[string]interface{}{
			"field": fieldID,
		})
		return NeutralScore
	}

	if def.Kind == field.KindCategorical {
		return n.normalizeCategorical(fieldID, value)
	}

	v, numeric := field.ToNumber(value)
	if !numeric {
		return 0
	}

	switch {
	case def.Min != nil && def.Max != nil:
		return rangeScore(v, *def.Min, *def.Max)
	case def.Optimal != nil:
		tolerance := 2 * *def.Optimal
		if def.Max != nil {
			tolerance = *def.Max
		}
		return optimalScore(v, *def.Optimal, tolerance)
	default:
		return n.semanticScore(fieldID, v)
	}
}

// rangeScore is the linear clamp strategy.
func rangeScore(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return clamp((v - min) / (max - min))
}

// optimalScore is the triangular falloff strategy: 1 at the optimal value,
// falling linearly to 0 at distance tolerance.
func optimalScore(v, optimal, tolerance float64) float64 {
	if tolerance <= 0 {
		return 0
	}
	return clamp(1 - math.Abs(v-optimal)/tolerance)
}

// semanticScore applies the override curves for well-known fields.
func (n *Normalizer) semanticScore(fieldID string, v float64) float64 {
	switch fieldID {
	case "age":
		// Plateau at 1.0 between 25 and 55, tapering outside.
		switch {
		case v >= 25 && v <= 55:
			return 1
		case v < 25:
			return clamp(1 - (25-v)*0.04)
		default:
			return clamp(1 - (v-55)*0.02)
		}
	case "debtToIncomeRatio", "creditUtilization":
		// Ratios where lower is better.
		return clamp(1 - v)
	case "annualIncome", "income":
		// Capped linear to a ceiling.
		return clamp(v / 200000)
	case "creditScore", "estimatedCreditScore":
		return clamp((v - 300) / (850 - 300))
	default:
		n.logger.Debug("no normalization configured, using neutral", map[string]interface{}{
			"field": fieldID,
		})
		return NeutralScore
	}
}

// Ordinal lookup tables for categorical fields.
var categoricalTables = map[string]map[string]float64{
	"employmentStatus": {
		"Employed":      1.0,
		"Self-Employed": 0.85,
		"Part-Time":     0.6,
		"Retired":       0.5,
		"Student":       0.4,
		"Unemployed":    0.2,
	},
	"education": {
		"PhD":         1.0,
		"Masters":     0.9,
		"Bachelors":   0.75,
		"Associates":  0.6,
		"High School": 0.5,
	},
	"homeOwnership": {
		"Own":      1.0,
		"Mortgage": 0.8,
		"Rent":     0.5,
		"Other":    0.4,
	},
	"paymentHistory": {
		"Excellent": 1.0,
		"Good":      0.8,
		"Fair":      0.5,
		"Poor":      0.2,
	},
}

func (n *Normalizer) normalizeCategorical(fieldID string, value interface{}) float64 {
	str, ok := value.(string)
	if !ok || str == "" {
		return 0
	}

	table, ok := categoricalTables[fieldID]
	if !ok {
		return NeutralScore
	}
	score, ok := table[str]
	if !ok {
		n.logger.Debug("unknown category value, using neutral", map[string]interface{}{
			"field": fieldID,
			"value": str,
		})
		return NeutralScore
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
