package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration can support the given mode of
// operation. Bounds shared by every mode are always checked.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Rateview.BaseURL == "" {
		problems = append(problems, "rateview.base_url is required")
	}
	if c.Rateview.TimeoutSecs <= 0 {
		problems = append(problems, "rateview.timeout_secs must be > 0")
	}
	if c.Rateview.RequestsPerSecond < 0 {
		problems = append(problems, "rateview.requests_per_second must be >= 0")
	}
	if c.Batch.MaxConcurrentLookups < 1 || c.Batch.MaxConcurrentLookups > 50 {
		problems = append(problems, "batch.max_concurrent_lookups must be between 1 and 50")
	}

	switch mode {
	case "run", "lookup":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}
