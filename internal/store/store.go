// Package store persists scoring fields and factor configurations in
// PostgreSQL, with a Redis read-through cache in front of the full
// configuration snapshot.
package store

import (
	"database/sql"
	"errors"
	"time"

	"credit-scoring-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

var (
	ErrFieldNotFound  = errors.New("FIELD_NOT_FOUND")
	ErrFieldConflict  = errors.New("FIELD_CONFLICT")
	ErrFactorNotFound = errors.New("FACTOR_NOT_FOUND")
)

const (
	fieldsCacheKey  = "scoring:fields"
	factorsCacheKey = "scoring:configs"
)

// Store is the persistence layer for the scoring configuration. The Redis
// client is optional; without it every read goes to PostgreSQL.
type Store struct {
	db       *sql.DB
	redis    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

func New(db *sql.DB, rdb *redis.Client, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		redis:    rdb,
		cacheTTL: cacheTTL,
		logger:   log,
	}
}
