// internal/store/factors.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"credit-scoring-workers/internal/scoring/factor"

	"github.com/lib/pq"
)

const factorColumns = `key, name, max_points, weight, category,
	calculation_type, thresholds, optimal_value, max_value, enabled`

// ListFactors returns every stored factor configuration in insertion order.
func (s *Store) ListFactors(ctx context.Context) ([]factor.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factorColumns+`
		FROM scoring_configs
		ORDER BY position, key`)
	if err != nil {
		return nil, fmt.Errorf("list factors: %w", err)
	}
	defer rows.Close()

	var configs []factor.Config
	for rows.Next() {
		cfg, err := scanFactor(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// GetFactor returns one factor configuration by key.
func (s *Store) GetFactor(ctx context.Context, key string) (factor.Config, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+factorColumns+`
		FROM scoring_configs
		WHERE key = $1`, key)

	cfg, err := scanFactor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return factor.Config{}, ErrFactorNotFound
	}
	return cfg, err
}

// CreateFactor inserts a new factor configuration.
func (s *Store) CreateFactor(ctx context.Context, cfg factor.Config) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scoring_configs
			(key, name, max_points, weight, category,
			 calculation_type, thresholds, optimal_value, max_value, enabled,
			 position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			COALESCE((SELECT MAX(position) + 1 FROM scoring_configs), 0))`,
		cfg.Key, cfg.Name, cfg.MaxPoints, cfg.Weight, string(cfg.Category),
		string(cfg.CalculationType), cfg.Thresholds,
		nullFloat(cfg.OptimalValue), nullFloat(cfg.MaxValue), cfg.Enabled,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrFieldConflict
		}
		return fmt.Errorf("create factor %q: %w", cfg.Key, err)
	}

	s.invalidate(ctx, factorsCacheKey)
	return nil
}

// UpdateFactor replaces an existing factor configuration.
func (s *Store) UpdateFactor(ctx context.Context, cfg factor.Config) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE scoring_configs
		SET name = $2, max_points = $3, weight = $4, category = $5,
		    calculation_type = $6, thresholds = $7,
		    optimal_value = $8, max_value = $9, enabled = $10,
		    updated_at = NOW()
		WHERE key = $1`,
		cfg.Key, cfg.Name, cfg.MaxPoints, cfg.Weight, string(cfg.Category),
		string(cfg.CalculationType), cfg.Thresholds,
		nullFloat(cfg.OptimalValue), nullFloat(cfg.MaxValue), cfg.Enabled,
	)
	if err != nil {
		return fmt.Errorf("update factor %q: %w", cfg.Key, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFactorNotFound
	}

	s.invalidate(ctx, factorsCacheKey)
	return nil
}

// DeleteFactor removes a factor configuration by key.
func (s *Store) DeleteFactor(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scoring_configs WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete factor %q: %w", key, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrFactorNotFound
	}

	s.invalidate(ctx, factorsCacheKey)
	return nil
}

func scanFactor(row rowScanner) (factor.Config, error) {
	var cfg factor.Config
	var category, calcType string
	var thresholds sql.NullString
	var optimalValue, maxValue sql.NullFloat64

	err := row.Scan(
		&cfg.Key, &cfg.Name, &cfg.MaxPoints, &cfg.Weight, &category,
		&calcType, &thresholds, &optimalValue, &maxValue, &cfg.Enabled,
	)
	if err != nil {
		return factor.Config{}, err
	}

	cfg.Category = factor.Category(category)
	cfg.CalculationType = factor.CalculationType(calcType)
	cfg.Thresholds = thresholds.String
	cfg.OptimalValue = floatPtr(optimalValue)
	cfg.MaxValue = floatPtr(maxValue)
	return cfg, nil
}
