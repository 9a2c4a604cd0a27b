package main

import (
	"fmt"
	"net/http"

	"github.com/brian-reel/airtable-heroku/internal/adapters/ledger"
	"github.com/brian-reel/airtable-heroku/internal/adapters/repository"
	service "github.com/brian-reel/airtable-heroku/internal/app"
	"github.com/brian-reel/airtable-heroku/internal/config"
	"github.com/brian-reel/airtable-heroku/internal/domain/dedupe"
	"github.com/brian-reel/airtable-heroku/internal/domain/diff"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
)

// sourceQueries registers every enabled job's query under its purpose key.
func sourceQueries(jobs []config.Job) ([]repository.Option, error) {
	opts := make([]repository.Option, 0, len(jobs))
	for _, j := range jobs {
		if j.SourceQuery == "" {
			return nil, fmt.Errorf("job %q: source_query is required", j.Name)
		}
		opts = append(opts, repository.WithQuery(j.PurposeKey(), j.SourceQuery))
	}
	return opts, nil
}

// ledgerStore builds the Airtable client for one table, wrapped for dry
// runs when configured.
func ledgerStore(cfg *config.Config, j *config.Job, hc *http.Client, log logger.Logger) (ledger.Store, error) {
	codec, err := ledger.NewCodec(j.ColumnOverrides())
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", j.Name, err)
	}
	var store ledger.Store = ledger.NewClient(cfg.Ledger.BaseID, j.Table, cfg.Ledger.Token, codec,
		ledger.WithHTTPClient(hc),
		ledger.WithBaseURL(cfg.Ledger.BaseURL),
		ledger.WithPageSize(cfg.Ledger.PageSize),
		ledger.WithReadRetries(cfg.Ledger.ReadRetries, cfg.Ledger.RetryBackoff),
		ledger.WithBreakerFailures(cfg.Ledger.BreakerFailures),
		ledger.WithLogger(log.Named("ledger")),
	)
	if cfg.Ledger.DryRun {
		store = ledger.NewDryRun(store, log.Named("dryrun"))
	}
	return store, nil
}

// buildJobs turns the enabled roster into service jobs sharing one source.
func buildJobs(cfg *config.Config, src repository.SourceStore, log logger.Logger) ([]service.Job, error) {
	enabled := cfg.EnabledJobs()
	if len(enabled) == 0 {
		return nil, config.ErrNoJobs
	}

	hc := &http.Client{Timeout: cfg.Ledger.Timeout}
	regions := cfg.RegionTable()
	jobs := make([]service.Job, 0, len(enabled))
	for i := range enabled {
		j := &enabled[i]

		tracked, err := j.TrackedFields()
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", j.Name, err)
		}
		engineOpts := []diff.Option{diff.WithRegions(regions)}
		if tracked != nil {
			engineOpts = append(engineOpts, diff.WithTracked(tracked...))
		}

		store, err := ledgerStore(cfg, j, hc, log)
		if err != nil {
			return nil, err
		}

		job := service.Job{
			Name:   j.Name,
			Table:  j.Table,
			Source: src,
			Filter: repository.Filter{
				Purpose:    j.PurposeKey(),
				ActiveOnly: j.ActiveOnly,
				TenantIDs:  j.Tenants,
			},
			Ledger:        store,
			Engine:        diff.New(engineOpts...),
			CreateMissing: j.CreateMissing,
			DryRun:        cfg.Ledger.DryRun,
		}
		if j.FlagDuplicates {
			job.Detector = dedupe.New()
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
