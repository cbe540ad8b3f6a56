// internal/workers/scoring/calculate-credit-score/config.go
package calculatecreditscore

import (
	"time"

	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/scoring/engine"
)

type Config struct {
	Timeout time.Duration
	Options engine.Options
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Options: engine.DefaultOptions(),
	}
}

// LoadConfigFrom derives the worker configuration from the application
// scoring section.
func LoadConfigFrom(cfg config.ScoringConfig) *Config {
	return &Config{
		Timeout: 10 * time.Second,
		Options: engine.Options{
			BaseScore:        cfg.BaseScore,
			BonusPoints:      cfg.BonusPoints,
			BonusFactorShare: cfg.BonusFactorShare,
			BonusScoreShare:  cfg.BonusScoreShare,
		},
	}
}
