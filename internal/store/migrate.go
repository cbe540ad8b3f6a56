// internal/store/migrate.go
package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS scoring_fields (
		id             TEXT PRIMARY KEY,
		label          TEXT NOT NULL DEFAULT '',
		kind           TEXT NOT NULL,
		membership     TEXT NOT NULL,
		weight         DOUBLE PRECISION NOT NULL DEFAULT 0,
		enabled        BOOLEAN NOT NULL DEFAULT TRUE,
		min_value      DOUBLE PRECISION,
		max_value      DOUBLE PRECISION,
		optimal_value  DOUBLE PRECISION,
		formula        TEXT NOT NULL DEFAULT '',
		dependencies   TEXT NOT NULL DEFAULT '[]',
		display_format TEXT NOT NULL DEFAULT '',
		position       INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scoring_configs (
		key              TEXT PRIMARY KEY,
		name             TEXT NOT NULL DEFAULT '',
		max_points       DOUBLE PRECISION NOT NULL,
		weight           DOUBLE PRECISION NOT NULL DEFAULT 1,
		category         TEXT NOT NULL DEFAULT 'general',
		calculation_type TEXT NOT NULL,
		thresholds       TEXT NOT NULL DEFAULT '',
		optimal_value    DOUBLE PRECISION,
		max_value        DOUBLE PRECISION,
		enabled          BOOLEAN NOT NULL DEFAULT TRUE,
		position         INTEGER NOT NULL DEFAULT 0,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the scoring tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
