// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"

	"credit-scoring-workers/internal/common/metrics"
	"credit-scoring-workers/internal/scoring/factor"
	"credit-scoring-workers/internal/scoring/field"
)

// LoadFields returns the field definitions, serving from the Redis snapshot
// when present. A cache failure falls through to PostgreSQL and is never
// surfaced to the caller.
func (s *Store) LoadFields(ctx context.Context) ([]field.Definition, error) {
	var defs []field.Definition
	if s.cacheGet(ctx, fieldsCacheKey, &defs) {
		return defs, nil
	}

	defs, err := s.ListFields(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, fieldsCacheKey, defs)
	return defs, nil
}

// LoadFactors returns the factor configurations through the same snapshot
// cache.
func (s *Store) LoadFactors(ctx context.Context) ([]factor.Config, error) {
	var configs []factor.Config
	if s.cacheGet(ctx, factorsCacheKey, &configs) {
		return configs, nil
	}

	configs, err := s.ListFactors(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, factorsCacheKey, configs)
	return configs, nil
}

func (s *Store) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.redis == nil {
		return false
	}

	raw, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		metrics.ConfigCacheHits.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// A snapshot that no longer decodes is stale: drop it.
		s.logger.Warn("dropping undecodable cache snapshot", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		s.redis.Del(ctx, key)
		metrics.ConfigCacheHits.WithLabelValues("miss").Inc()
		return false
	}

	metrics.ConfigCacheHits.WithLabelValues("hit").Inc()
	return true
}

func (s *Store) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// InvalidateCache drops both configuration snapshots so the next load reads
// PostgreSQL directly.
func (s *Store) InvalidateCache(ctx context.Context) {
	s.invalidate(ctx, fieldsCacheKey)
	s.invalidate(ctx, factorsCacheKey)
}

// invalidate drops a cache snapshot after a write. Failures only mean the
// snapshot lives until its TTL.
func (s *Store) invalidate(ctx context.Context, key string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
