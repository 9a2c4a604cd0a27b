// Package repository reads source entities from the system of record.
package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// Filter narrows what a source store returns.
type Filter struct {
	// Purpose selects the named query registered for a sync job.
	Purpose string
	// ActiveOnly drops rows for people no longer employed.
	ActiveOnly bool
	// TenantIDs, when set, keeps only rows of those tenants.
	TenantIDs []string
}

// Match reports whether e passes the filter's row predicates.
func (f Filter) Match(e *model.SourceEntity) bool {
	if f.ActiveOnly && !e.Active {
		return false
	}
	if len(f.TenantIDs) > 0 && !slices.Contains(f.TenantIDs, strings.TrimSpace(e.TenantID)) {
		return false
	}
	return true
}

// SourceStore is the read-only system of record.
type SourceStore interface {
	// FetchEntities returns candidate rows in query order. Rows sharing one
	// person are not collapsed here.
	FetchEntities(ctx context.Context, f Filter) ([]model.SourceEntity, error)
}
