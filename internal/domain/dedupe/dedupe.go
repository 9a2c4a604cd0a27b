// Package dedupe finds ledger records that collide with each other on email,
// phone or name and plans the duplicate flag for every non-survivor.
package dedupe

import (
	"github.com/brian-reel/airtable-heroku/internal/domain/identity"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// Detector groups colliding ledger records. Identity-field collisions are
// not its concern; they point at broken matching and are reported by the
// reconciliation pass instead.
type Detector struct {
	kinds []model.KeyKind
}

// New creates a Detector bucketing by email, phone and name.
func New(opts ...Option) *Detector {
	d := &Detector{
		kinds: []model.KeyKind{model.KindEmail, model.KindPhone, model.KindName},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns one group per bucket holding more than one record, ordered
// by kind then by the fetch position of the bucket's first member. Records
// already flagged duplicate are ignored. Groups point into records.
func (d *Detector) Detect(records []model.LedgerRecord) []model.DuplicateGroup {
	var groups []model.DuplicateGroup
	for _, kind := range d.kinds {
		buckets := make(map[string][]*model.LedgerRecord)
		var order []string
		for i := range records {
			r := &records[i]
			if r.Fields.Duplicate {
				continue
			}
			key := identity.RecordKey(r, kind)
			if !key.Valid() {
				continue
			}
			if _, ok := buckets[key.Value]; !ok {
				order = append(order, key.Value)
			}
			buckets[key.Value] = append(buckets[key.Value], r)
		}
		for _, value := range order {
			members := buckets[value]
			if len(members) < 2 {
				continue
			}
			groups = append(groups, newGroup(kind, value, members))
		}
	}
	return groups
}

func newGroup(kind model.KeyKind, key string, members []*model.LedgerRecord) model.DuplicateGroup {
	best := 0
	for i := 1; i < len(members); i++ {
		if survives(members[i], members[best]) {
			best = i
		}
	}
	g := model.DuplicateGroup{Kind: kind, Key: key, Survivor: members[best]}
	for i, m := range members {
		if i != best {
			g.Duplicates = append(g.Duplicates, m)
		}
	}
	return g
}

// survives reports whether a strictly beats b. Earlier fetch position wins ties.
func survives(a, b *model.LedgerRecord) bool {
	if a.Active() != b.Active() {
		return a.Active()
	}
	return a.Recency().After(b.Recency())
}

// FlagPlans returns one Duplicate=true plan per non-survivor. A record that
// appears in several groups is flagged once.
func (d *Detector) FlagPlans(groups []model.DuplicateGroup) []model.UpdatePlan {
	seen := newSeenSet()
	var plans []model.UpdatePlan
	for _, g := range groups {
		for _, r := range g.Duplicates {
			if r.Fields.Duplicate || seen.SeenAndRecord(r.ID) {
				continue
			}
			plans = append(plans, model.UpdatePlan{
				RecordID: r.ID,
				SourceID: r.Fields.EmployeeID.Text,
				Changes:  []model.Change{{Field: model.FieldDuplicate, Value: model.String("true")}},
			})
		}
	}
	return plans
}
