// Package engine assembles the two scoring paths behind the entry points the
// API layer and workers call: derived-field calculation, the overall weighted
// score, and the configurable factor score.
package engine

import (
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/aggregate"
	"credit-scoring-workers/internal/scoring/derive"
	"credit-scoring-workers/internal/scoring/factor"
	"credit-scoring-workers/internal/scoring/field"
	"credit-scoring-workers/internal/scoring/normalize"
)

// Options are the assembler tunables. BaseScore is the fixed floor added to
// the factor score; the bonus stage adds BonusPoints when at least
// BonusFactorShare of the positive-max factors each reach BonusScoreShare of
// their max.
type Options struct {
	BaseScore        float64
	BonusPoints      float64
	BonusFactorShare float64
	BonusScoreShare  float64
}

// DefaultOptions matches the production configuration defaults.
func DefaultOptions() Options {
	return Options{
		BaseScore:        300,
		BonusPoints:      5,
		BonusFactorShare: 0.8,
		BonusScoreShare:  0.8,
	}
}

// Breakdown is the weighted score attributable to each factor category.
type Breakdown struct {
	Demographic float64 `json:"demographic"`
	Financial   float64 `json:"financial"`
	Credit      float64 `json:"credit"`
	Employment  float64 `json:"employment"`
	General     float64 `json:"general"`
}

func (b *Breakdown) add(category factor.Category, weighted float64) {
	switch category {
	case factor.CategoryDemographic:
		b.Demographic += weighted
	case factor.CategoryFinancial:
		b.Financial += weighted
	case factor.CategoryCredit:
		b.Credit += weighted
	case factor.CategoryEmployment:
		b.Employment += weighted
	default:
		b.General += weighted
	}
}

// FactorScore is the assembled configurable-path score.
type FactorScore struct {
	TotalScore float64         `json:"totalScore"`
	MaxScore   float64         `json:"maxScore"`
	BaseScore  float64         `json:"baseScore"`
	Bonus      float64         `json:"bonus"`
	Results    []factor.Result `json:"results"`
	Breakdown  Breakdown       `json:"breakdown"`
}

// Engine is a pure function of (snapshot, configuration). Configuration is
// read-only after construction: concurrent calculations over different
// snapshots need no synchronization, and configuration changes require a new
// Engine (load once, compute many, reload).
type Engine struct {
	registry   *field.Registry
	evaluator  *derive.Evaluator
	normalizer *normalize.Normalizer
	aggregator *aggregate.Aggregator
	scorer     *factor.Scorer
	factors    []factor.Config
	opts       Options
	logger     logger.Logger
}

func New(registry *field.Registry, factors []factor.Config, opts Options, log logger.Logger) *Engine {
	normalizer := normalize.NewNormalizer(registry, log)
	return &Engine{
		registry:   registry,
		evaluator:  derive.NewEvaluator(registry, log),
		normalizer: normalizer,
		aggregator: aggregate.NewAggregator(registry, normalizer),
		scorer:     factor.NewScorer(log),
		factors:    factors,
		opts:       opts,
		logger:     log,
	}
}

// Registry exposes the engine's field registry (read-only use by callers).
func (e *Engine) Registry() *field.Registry {
	return e.registry
}

// Factors returns the configured scoring factors.
func (e *Engine) Factors() []factor.Config {
	return e.factors
}

// CalculateAllFields fills in derived fields over the snapshot.
func (e *Engine) CalculateAllFields(snap field.Snapshot) field.Snapshot {
	return e.evaluator.CalculateAllFields(snap)
}

// CalculateOverallScore runs the weighted-aggregate path, deriving fields
// first so derived values contribute.
func (e *Engine) CalculateOverallScore(snap field.Snapshot) aggregate.OverallScore {
	return e.aggregator.Aggregate(e.CalculateAllFields(snap))
}

// CalculateScore runs the configurable factor path and assembles the final
// score: base offset + weighted factor points + bonus, with the category
// breakdown. A factor that cannot be scored contributes zero points; the
// pass always completes.
func (e *Engine) CalculateScore(snap field.Snapshot) FactorScore {
	extended := e.CalculateAllFields(snap)

	score := FactorScore{
		BaseScore:  e.opts.BaseScore,
		TotalScore: e.opts.BaseScore,
		MaxScore:   e.opts.BaseScore,
	}

	for _, cfg := range e.factors {
		if !cfg.Enabled {
			continue
		}
		result := e.scorer.ScoreFactor(cfg, extended)
		score.Results = append(score.Results, result)
		score.TotalScore += result.Weighted
		score.MaxScore += cfg.MaxPoints * cfg.Weight
		score.Breakdown.add(cfg.Category, result.Weighted)
	}

	if bonus := e.bonus(score.Results); bonus > 0 {
		score.Bonus = bonus
		score.TotalScore += bonus
	}

	return score
}

// bonus implements the high-performance bonus stage: a deterministic rule
// over the already-computed results, not a separate model. Only factors with
// a positive max participate; penalty factors have no notion of "reaching
// their max".
func (e *Engine) bonus(results []factor.Result) float64 {
	if e.opts.BonusPoints <= 0 || len(results) == 0 {
		return 0
	}

	eligible := 0
	strong := 0
	for _, r := range results {
		cfg := e.factorConfig(r.Key)
		if cfg == nil || cfg.MaxPoints <= 0 {
			continue
		}
		eligible++
		if r.Points >= e.opts.BonusScoreShare*cfg.MaxPoints {
			strong++
		}
	}
	if eligible == 0 {
		return 0
	}
	if float64(strong) >= e.opts.BonusFactorShare*float64(eligible) {
		return e.opts.BonusPoints
	}
	return 0
}

func (e *Engine) factorConfig(key string) *factor.Config {
	for i := range e.factors {
		if e.factors[i].Key == key {
			return &e.factors[i]
		}
	}
	return nil
}
