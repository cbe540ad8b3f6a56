// internal/workers/scoring/validate-applicant-data/config.go
package validateapplicantdata

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
