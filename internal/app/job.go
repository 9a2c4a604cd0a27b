package service

import (
	"github.com/brian-reel/airtable-heroku/internal/adapters/ledger"
	"github.com/brian-reel/airtable-heroku/internal/adapters/repository"
	"github.com/brian-reel/airtable-heroku/internal/domain/dedupe"
	"github.com/brian-reel/airtable-heroku/internal/domain/diff"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// Job binds one source query to one ledger table.
type Job struct {
	Name   string
	Table  string
	Source repository.SourceStore
	Filter repository.Filter
	Ledger ledger.Store
	Engine *diff.Engine

	// Detector, when set, flags duplicate ledger records during the pass.
	Detector *dedupe.Detector

	// CreateMissing turns unmatched active sources into new ledger rows.
	CreateMissing bool

	// DryRun is recorded on the report; the ledger store decides whether
	// writes really happen.
	DryRun bool
}

// fetchFields lists every ledger field a pass reads: the match keys, the
// status pair, the engine's tracked fields and, only for jobs that flag
// duplicates, the duplicate flag. Tables without that column stay readable.
func (j *Job) fetchFields() []model.Field {
	fields := []model.Field{
		model.FieldEmployeeID,
		model.FieldEmail,
		model.FieldPhone,
		model.FieldName,
		model.FieldListedStatus,
		model.FieldEmploymentStatus,
	}
	if j.Detector != nil {
		fields = append(fields, model.FieldDuplicate)
	}
	seen := make(map[model.Field]bool, len(fields))
	for _, f := range fields {
		seen[f] = true
	}
	for _, f := range j.Engine.Tracked() {
		if !seen[f] {
			seen[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}
