package config

import "errors"

// Sentinel error kinds for configuration loading and the job roster.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
	ErrNoJobs        = errors.New("no enabled sync jobs configured")
)
