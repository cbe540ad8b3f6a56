// Package aggregate turns normalized field values into the overall weighted
// score.
package aggregate

import (
	"sort"

	"credit-scoring-workers/internal/scoring/field"
	"credit-scoring-workers/internal/scoring/normalize"
)

// Detail is one field's contribution to the overall score.
type Detail struct {
	Field      string      `json:"field"`
	Label      string      `json:"label"`
	Value      interface{} `json:"value"`
	Normalized float64     `json:"normalized"`
	Weight     float64     `json:"weight"`
	Weighted   float64     `json:"weighted"`
}

// OverallScore is the weighted aggregate over all enabled fields.
type OverallScore struct {
	TotalScore float64  `json:"totalScore"`
	MaxScore   float64  `json:"maxScore"`
	Percentage float64  `json:"percentage"`
	Details    []Detail `json:"details"`
}

// Aggregator sums normalized × weight over the registry's enabled fields.
type Aggregator struct {
	registry   *field.Registry
	normalizer *normalize.Normalizer
}

func NewAggregator(registry *field.Registry, normalizer *normalize.Normalizer) *Aggregator {
	return &Aggregator{registry: registry, normalizer: normalizer}
}

// Aggregate computes the overall score for a snapshot. Disabled fields and
// fields with zero weight are excluded. Details are sorted by weighted
// contribution descending (field ID ascending on ties) for top-contributor
// reporting. Identical snapshot and configuration always produce identical
// output.
func (a *Aggregator) Aggregate(snap field.Snapshot) OverallScore {
	var score OverallScore

	for _, def := range a.registry.List() {
		if !def.Enabled || def.Weight <= 0 {
			continue
		}

		value := snap[def.ID]
		normalized := a.normalizer.Normalize(def.ID, value)
		weighted := normalized * def.Weight

		score.TotalScore += weighted
		score.MaxScore += def.Weight
		score.Details = append(score.Details, Detail{
			Field:      def.ID,
			Label:      def.Label,
			Value:      value,
			Normalized: normalized,
			Weight:     def.Weight,
			Weighted:   weighted,
		})
	}

	if score.MaxScore > 0 {
		score.Percentage = score.TotalScore / score.MaxScore * 100
	}

	sort.SliceStable(score.Details, func(i, j int) bool {
		if score.Details[i].Weighted != score.Details[j].Weighted {
			return score.Details[i].Weighted > score.Details[j].Weighted
		}
		return score.Details[i].Field < score.Details[j].Field
	})

	return score
}
