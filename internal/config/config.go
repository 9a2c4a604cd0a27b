// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/normalize"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080". Empty disables
	// the HTTP surface.
	Addr string `koanf:"addr"`

	// Interval between scheduled rounds. Zero runs every job once and exits.
	Interval time.Duration `koanf:"interval"`

	// ReportDir receives one JSON report per pass. Empty disables files.
	ReportDir string `koanf:"report_dir"`

	Source Source `koanf:"source"`
	Ledger Ledger `koanf:"ledger"`

	// Regions overrides or extends the built-in tenant -> state table.
	Regions map[string]string `koanf:"regions"`

	// Jobs is the roster of sync jobs run each round, in order.
	Jobs []Job `koanf:"jobs"`
}

// Source configures the system of record.
type Source struct {
	Driver       string `koanf:"driver"` // postgres or sqlite3
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
}

// Ledger configures the Airtable base.
type Ledger struct {
	BaseURL         string        `koanf:"base_url"`
	BaseID          string        `koanf:"base_id"`
	Token           string        `koanf:"token"`
	PageSize        int           `koanf:"page_size"`
	ReadRetries     int           `koanf:"read_retries"`
	RetryBackoff    time.Duration `koanf:"retry_backoff"`
	Timeout         time.Duration `koanf:"timeout"`
	WriteDelay      time.Duration `koanf:"write_delay"`
	DryRun          bool          `koanf:"dry_run"`
	BreakerFailures int           `koanf:"breaker_failures"`
}

// Job is one sync: a source query reconciled against one ledger table.
type Job struct {
	Name        string `koanf:"name"`
	Table       string `koanf:"table"`
	Purpose     string `koanf:"purpose"`
	SourceQuery string `koanf:"source_query"`

	// IdentityField names the ledger column holding the employee id.
	IdentityField string `koanf:"identity_field"`

	// Columns overrides ledger column names, keyed by field name.
	Columns map[string]string `koanf:"columns"`

	// Tracked lists the field names diffed beyond identity and status.
	Tracked []string `koanf:"tracked"`

	CreateMissing  bool     `koanf:"create_missing"`
	FlagDuplicates bool     `koanf:"flag_duplicates"`
	ActiveOnly     bool     `koanf:"active_only"`
	Tenants        []string `koanf:"tenants"`

	// Enabled defaults to true when omitted.
	Enabled *bool `koanf:"enabled"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		ReportDir: "reports",
		Source: Source{
			Driver:       "postgres",
			MaxOpenConns: 5,
		},
		Ledger: Ledger{
			BaseURL:         "https://api.airtable.com",
			PageSize:        100,
			ReadRetries:     3,
			RetryBackoff:    time.Second,
			Timeout:         30 * time.Second,
			WriteDelay:      200 * time.Millisecond,
			BreakerFailures: 5,
		},
	}
}

// RegionTable returns the built-in table with configured overrides applied.
func (c *Config) RegionTable() normalize.RegionTable {
	t := normalize.DefaultRegions()
	for tenant, state := range c.Regions {
		t[tenant] = state
	}
	return t
}

// EnabledJobs returns the jobs that will run, in roster order.
func (c *Config) EnabledJobs() []Job {
	var out []Job
	for _, j := range c.Jobs {
		if j.IsEnabled() {
			out = append(out, j)
		}
	}
	return out
}

// IsEnabled reports whether the job runs.
func (j *Job) IsEnabled() bool { return j.Enabled == nil || *j.Enabled }

// PurposeKey is the source query key; it defaults to the job name.
func (j *Job) PurposeKey() string {
	if j.Purpose != "" {
		return j.Purpose
	}
	return j.Name
}

// TrackedFields parses Tracked. An empty list yields nil and leaves the
// engine defaults in place.
func (j *Job) TrackedFields() ([]model.Field, error) {
	if len(j.Tracked) == 0 {
		return nil, nil
	}
	out := make([]model.Field, 0, len(j.Tracked))
	for _, name := range j.Tracked {
		f, err := model.ParseField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ColumnOverrides merges Columns and IdentityField into one override map.
func (j *Job) ColumnOverrides() map[string]string {
	out := make(map[string]string, len(j.Columns)+1)
	for k, v := range j.Columns {
		out[k] = v
	}
	if j.IdentityField != "" {
		out[model.FieldEmployeeID.String()] = j.IdentityField
	}
	return out
}
