package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	switch c.Source.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("%w: source.driver %q", ErrInvalidConfig, c.Source.Driver)
	}

	l := c.Ledger
	if l.PageSize < 1 || l.PageSize > 100 {
		return fmt.Errorf("%w: ledger.page_size must be within 1..100, got %d", ErrInvalidConfig, l.PageSize)
	}
	if l.ReadRetries < 0 {
		return fmt.Errorf("%w: ledger.read_retries must not be negative", ErrInvalidConfig)
	}
	if l.RetryBackoff < 0 || l.Timeout < 0 || l.WriteDelay < 0 {
		return fmt.Errorf("%w: ledger delays must not be negative", ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Jobs))
	for i := range c.Jobs {
		j := &c.Jobs[i]
		if strings.TrimSpace(j.Name) == "" {
			return fmt.Errorf("%w: jobs[%d] has no name", ErrInvalidConfig, i)
		}
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("%w: duplicate job name %q", ErrInvalidConfig, j.Name)
		}
		seen[j.Name] = struct{}{}
		if strings.TrimSpace(j.Table) == "" {
			return fmt.Errorf("%w: job %q has no table", ErrInvalidConfig, j.Name)
		}
		if _, err := j.TrackedFields(); err != nil {
			return fmt.Errorf("%w: job %q: %w", ErrInvalidConfig, j.Name, err)
		}
	}
	return nil
}
