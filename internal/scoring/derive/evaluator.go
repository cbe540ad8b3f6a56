// Package derive computes derived fields from applicant snapshots.
package derive

import (
	"errors"
	"fmt"
	"sync"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring/field"
	"credit-scoring-workers/internal/scoring/formula"
)

var (
	// ErrMissingDependency means an input was absent or non-numeric. This is
	// an expected outcome, not a failure: the dependent field is simply left
	// out of the pass.
	ErrMissingDependency = errors.New("derive: missing or non-numeric dependency")

	// ErrInvalidResult means the formula produced a non-finite number.
	ErrInvalidResult = errors.New("derive: formula result is not finite")

	// ErrNotDerived means the field is not a derived field.
	ErrNotDerived = errors.New("derive: field is not derived")
)

// Evaluator evaluates derived-field formulas against a registry. Parsed
// formulas are cached per formula text; the cache is safe for concurrent
// calculations over different snapshots.
type Evaluator struct {
	registry *field.Registry
	logger   logger.Logger

	mu     sync.RWMutex
	parsed map[string]*formula.Expression
}

func NewEvaluator(registry *field.Registry, log logger.Logger) *Evaluator {
	return &Evaluator{
		registry: registry,
		logger:   log,
		parsed:   make(map[string]*formula.Expression),
	}
}

// Evaluate computes a single derived field over the snapshot. Dependencies
// are resolved structurally (the parser binds identifiers against the
// snapshot directly), so overlapping dependency names cannot collide the way
// textual substitution would.
func (e *Evaluator) Evaluate(fieldID string, snap field.Snapshot) (float64, error) {
	def, ok := e.registry.Get(fieldID)
	if !ok {
		return 0, fmt.Errorf("derive: field %q not registered", fieldID)
	}
	if !def.IsDerived() {
		return 0, ErrNotDerived
	}

	vars := make(map[string]float64, len(def.Dependencies))
	for _, dep := range def.Dependencies {
		v, ok := snap.Number(dep)
		if !ok {
			return 0, fmt.Errorf("%w: %q needs %q", ErrMissingDependency, fieldID, dep)
		}
		vars[dep] = v
	}

	expr, err := e.expression(def.Formula)
	if err != nil {
		return 0, fmt.Errorf("derive: field %q: %w", fieldID, err)
	}

	// The formula may reference identifiers outside the declared dependency
	// list; resolve those from the snapshot too, and treat absence the same
	// as a missing dependency.
	for _, name := range expr.Variables() {
		if _, ok := vars[name]; ok {
			continue
		}
		v, ok := snap.Number(name)
		if !ok {
			return 0, fmt.Errorf("%w: %q needs %q", ErrMissingDependency, fieldID, name)
		}
		vars[name] = v
	}

	result, err := expr.Evaluate(vars)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}
	return result, nil
}

// CalculateAllFields evaluates every derived field in topological order and
// returns the extended snapshot. Fields that cannot be calculated are absent
// from the result rather than present as 0 or NaN. The input snapshot is
// never mutated, and the operation is idempotent.
func (e *Evaluator) CalculateAllFields(snap field.Snapshot) field.Snapshot {
	out := snap.Clone()
	for _, id := range e.registry.EvaluationOrder() {
		value, err := e.Evaluate(id, out)
		if err != nil {
			e.logger.Debug("derived field skipped", map[string]interface{}{
				"field":  id,
				"reason": err.Error(),
			})
			continue
		}
		out[id] = value
	}
	return out
}

func (e *Evaluator) expression(text string) (*formula.Expression, error) {
	e.mu.RLock()
	expr, ok := e.parsed[text]
	e.mu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, err := formula.Parse(text)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.parsed[text] = expr
	e.mu.Unlock()
	return expr, nil
}
