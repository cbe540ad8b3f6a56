// internal/workers/scoring/calculate-derived-fields/config.go
package calculatederivedfields

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
