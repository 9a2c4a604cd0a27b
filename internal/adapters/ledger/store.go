// Package ledger talks to the external ledger table (an Airtable base) and
// provides in-memory and dry-run stand-ins with the same contract.
package ledger

import (
	"context"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// Store is the ledger as seen by a reconciliation pass.
type Store interface {
	// FetchAll returns every record of the table in the ledger's order,
	// reading only the given fields. Paging is handled inside.
	FetchAll(ctx context.Context, fields []model.Field) ([]model.LedgerRecord, error)
	// Update sets the given fields on one record. A change without a valid
	// value clears the field.
	Update(ctx context.Context, recordID string, changes []model.Change) (model.LedgerRecord, error)
	// Create inserts a new record holding the given fields.
	Create(ctx context.Context, changes []model.Change) (model.LedgerRecord, error)
}
