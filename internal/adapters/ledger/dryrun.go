package ledger

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
)

// DryRun reads through to a real store and only logs writes.
type DryRun struct {
	inner   Store
	log     logger.Logger
	created atomic.Int64
}

// NewDryRun wraps inner.
func NewDryRun(inner Store, log logger.Logger) *DryRun {
	if log == nil {
		log = logger.NewNop()
	}
	return &DryRun{inner: inner, log: log}
}

func (d *DryRun) FetchAll(ctx context.Context, fields []model.Field) ([]model.LedgerRecord, error) {
	return d.inner.FetchAll(ctx, fields)
}

// Update logs the change set and echoes it back.
func (d *DryRun) Update(ctx context.Context, recordID string, changes []model.Change) (model.LedgerRecord, error) {
	plan := model.UpdatePlan{RecordID: recordID, Changes: changes}
	d.log.Info(ctx, "dry run: would update ledger record",
		logger.String("record_id", recordID),
		logger.Any("fields", plan.Attempted()))
	rec := model.LedgerRecord{ID: recordID}
	rec.Apply(changes)
	return rec, nil
}

// Create logs the change set and returns a placeholder record.
func (d *DryRun) Create(ctx context.Context, changes []model.Change) (model.LedgerRecord, error) {
	plan := model.UpdatePlan{Changes: changes}
	id := fmt.Sprintf("dryrun%04d", d.created.Add(1))
	d.log.Info(ctx, "dry run: would create ledger record",
		logger.String("placeholder_id", id),
		logger.Any("fields", plan.Attempted()))
	rec := model.LedgerRecord{ID: id}
	rec.Apply(changes)
	return rec, nil
}
