// Package canonical picks one authoritative source row per person.
package canonical

import (
	"errors"
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// ErrEmptyGroup is returned when Select is called without candidates.
var ErrEmptyGroup = errors.New("canonical: empty group")

// Select returns the authoritative row of group: active rows first, then the
// greatest UpdatedAt (CreatedAt when UpdatedAt is missing), ties broken by
// input order.
func Select(group []model.SourceEntity) (model.SourceEntity, error) {
	if len(group) == 0 {
		return model.SourceEntity{}, ErrEmptyGroup
	}
	best := 0
	for i := 1; i < len(group); i++ {
		if Outranks(&group[i], &group[best]) {
			best = i
		}
	}
	return group[best], nil
}

// Outranks reports whether a strictly outranks b: active before inactive,
// then more recent. Equal rank keeps b, which preserves input order.
func Outranks(a, b *model.SourceEntity) bool {
	if a.Active != b.Active {
		return a.Active
	}
	return a.Recency().After(b.Recency())
}

// GroupKey is the person identity rows are grouped by: PersonID when the
// source provides one, otherwise the employee id.
func GroupKey(s *model.SourceEntity) string {
	if p := strings.TrimSpace(s.PersonID); p != "" {
		return "person:" + p
	}
	return "id:" + strings.TrimSpace(s.ID)
}

// Reduce collapses rows to one entity per GroupKey, in first-seen order.
func Reduce(rows []model.SourceEntity) []model.SourceEntity {
	order := make([]string, 0, len(rows))
	groups := make(map[string][]model.SourceEntity, len(rows))
	for _, row := range rows {
		key := GroupKey(&row)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	out := make([]model.SourceEntity, 0, len(order))
	for _, key := range order {
		// groups are non-empty by construction
		chosen, _ := Select(groups[key])
		out = append(out, chosen)
	}
	return out
}
