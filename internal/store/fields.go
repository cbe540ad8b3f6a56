// internal/store/fields.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"credit-scoring-workers/internal/scoring/field"

	"github.com/lib/pq"
)

const fieldColumns = `id, label, kind, membership, weight, enabled,
	min_value, max_value, optimal_value, formula, dependencies, display_format`

// ListFields returns every stored field definition in insertion order.
func (s *Store) ListFields(ctx context.Context) ([]field.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+fieldColumns+`
		FROM scoring_fields
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var defs []field.Definition
	for rows.Next() {
		def, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetField returns one field definition by ID.
func (s *Store) GetField(ctx context.Context, id string) (field.Definition, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+fieldColumns+`
		FROM scoring_fields
		WHERE id = $1`, id)

	def, err := scanField(row)
	if errors.Is(err, sql.ErrNoRows) {
		return field.Definition{}, ErrFieldNotFound
	}
	return def, err
}

// CreateField inserts a new field definition. A duplicate ID is a conflict,
// not an upsert.
func (s *Store) CreateField(ctx context.Context, def field.Definition) error {
	deps, err := json.Marshal(def.Dependencies)
	if err != nil {
		return fmt.Errorf("encode dependencies: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scoring_fields
			(id, label, kind, membership, weight, enabled,
			 min_value, max_value, optimal_value, formula, dependencies, display_format,
			 position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			COALESCE((SELECT MAX(position) + 1 FROM scoring_fields), 0))`,
		def.ID, def.Label, string(def.Kind), string(def.Membership),
		def.Weight, def.Enabled,
		nullFloat(def.Min), nullFloat(def.Max), nullFloat(def.Optimal),
		def.Formula, string(deps), def.DisplayFormat,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrFieldConflict
		}
		return fmt.Errorf("create field %q: %w", def.ID, err)
	}

	s.invalidate(ctx, fieldsCacheKey)
	return nil
}

// UpdateField replaces an existing field definition in place.
func (s *Store) UpdateField(ctx context.Context, def field.Definition) error {
	deps, err := json.Marshal(def.Dependencies)
	if err != nil {
		return fmt.Errorf("encode dependencies: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE scoring_fields
		SET label = $2, kind = $3, membership = $4, weight = $5, enabled = $6,
		    min_value = $7, max_value = $8, optimal_value = $9,
		    formula = $10, dependencies = $11, display_format = $12,
		    updated_at = NOW()
		WHERE id = $1`,
		def.ID, def.Label, string(def.Kind), string(def.Membership),
		def.Weight, def.Enabled,
		nullFloat(def.Min), nullFloat(def.Max), nullFloat(def.Optimal),
		def.Formula, string(deps), def.DisplayFormat,
	)
	if err != nil {
		return fmt.Errorf("update field %q: %w", def.ID, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFieldNotFound
	}

	s.invalidate(ctx, fieldsCacheKey)
	return nil
}

// DeleteField removes a field definition by ID.
func (s *Store) DeleteField(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scoring_fields WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete field %q: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFieldNotFound
	}

	s.invalidate(ctx, fieldsCacheKey)
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanField(row rowScanner) (field.Definition, error) {
	var def field.Definition
	var kind, membership string
	var minValue, maxValue, optimalValue sql.NullFloat64
	var formula, dependencies, displayFormat sql.NullString

	err := row.Scan(
		&def.ID, &def.Label, &kind, &membership, &def.Weight, &def.Enabled,
		&minValue, &maxValue, &optimalValue,
		&formula, &dependencies, &displayFormat,
	)
	if err != nil {
		return field.Definition{}, err
	}

	def.Kind = field.Kind(kind)
	def.Membership = field.Membership(membership)
	def.Min = floatPtr(minValue)
	def.Max = floatPtr(maxValue)
	def.Optimal = floatPtr(optimalValue)
	def.Formula = formula.String
	def.DisplayFormat = displayFormat.String

	if dependencies.String != "" {
		if err := json.Unmarshal([]byte(dependencies.String), &def.Dependencies); err != nil {
			return field.Definition{}, fmt.Errorf("decode dependencies for %q: %w", def.ID, err)
		}
	}
	return def, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
