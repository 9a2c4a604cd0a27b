// Package identity resolves which ledger record corresponds to a source
// entity using cascading identity keys: employee id, email, phone, name.
package identity

import (
	"sort"
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/normalize"
)

// precedence is the order keys are tried in.
var precedence = []model.KeyKind{
	model.KindEmployeeID,
	model.KindEmail,
	model.KindPhone,
	model.KindName,
}

// Key is a typed, normalized identity value.
type Key struct {
	Kind  model.KeyKind
	Value string
}

// Valid reports whether the key may be used for matching. Keys built from
// blank values never match anything, including other blank keys.
func (k Key) Valid() bool {
	return k.Kind != model.KindNone && strings.TrimSpace(k.Value) != ""
}

// SourceKey builds the key of the given kind for a source entity.
func SourceKey(s *model.SourceEntity, kind model.KeyKind) Key {
	switch kind {
	case model.KindEmployeeID:
		return Key{Kind: kind, Value: strings.TrimSpace(s.ID)}
	case model.KindEmail:
		return Key{Kind: kind, Value: normalize.Email(s.Email)}
	case model.KindPhone:
		return Key{Kind: kind, Value: normalize.Phone(s.Phone)}
	case model.KindName:
		return Key{Kind: kind, Value: normalize.Name(s.Name)}
	}
	return Key{}
}

// RecordKey builds the key of the given kind for a ledger record.
func RecordKey(r *model.LedgerRecord, kind model.KeyKind) Key {
	switch kind {
	case model.KindEmployeeID:
		return Key{Kind: kind, Value: strings.TrimSpace(r.Fields.EmployeeID.Text)}
	case model.KindEmail:
		return Key{Kind: kind, Value: normalize.Email(r.Fields.Email.Text)}
	case model.KindPhone:
		return Key{Kind: kind, Value: normalize.Phone(r.Fields.Phone.Text)}
	case model.KindName:
		return Key{Kind: kind, Value: normalize.Name(r.Fields.Name.Text)}
	}
	return Key{}
}

// Index maps every valid key of every ledger record to the records sharing
// it, in fetch order. It is built once per pass and never mutated.
type Index struct {
	buckets map[model.KeyKind]map[string][]*model.LedgerRecord
	size    int
}

// NewIndex indexes records. The index points into the given slice.
func NewIndex(records []model.LedgerRecord) *Index {
	ix := &Index{
		buckets: make(map[model.KeyKind]map[string][]*model.LedgerRecord, len(precedence)),
		size:    len(records),
	}
	for _, kind := range precedence {
		ix.buckets[kind] = make(map[string][]*model.LedgerRecord, len(records))
	}
	for i := range records {
		rec := &records[i]
		for _, kind := range precedence {
			key := RecordKey(rec, kind)
			if !key.Valid() {
				continue
			}
			ix.buckets[kind][key.Value] = append(ix.buckets[kind][key.Value], rec)
		}
	}
	return ix
}

// Len returns the number of indexed records.
func (ix *Index) Len() int { return ix.size }

// Candidates returns every record sharing key, in fetch order.
// Invalid keys have no candidates.
func (ix *Index) Candidates(key Key) []*model.LedgerRecord {
	if !key.Valid() {
		return nil
	}
	return ix.buckets[key.Kind][key.Value]
}

// Collision is an identity value held by more than one ledger record.
type Collision struct {
	EmployeeID string   `json:"employee_id"`
	RecordIDs  []string `json:"record_ids"`
}

// IdentityCollisions lists employee ids stored on more than one record,
// sorted by id. These point at broken matching rather than ledger noise.
func (ix *Index) IdentityCollisions() []Collision {
	var out []Collision
	for id, recs := range ix.buckets[model.KindEmployeeID] {
		if len(recs) < 2 {
			continue
		}
		c := Collision{EmployeeID: id, RecordIDs: make([]string, 0, len(recs))}
		for _, r := range recs {
			c.RecordIDs = append(c.RecordIDs, r.ID)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}

// MatchResult pairs a source entity with at most one ledger record.
type MatchResult struct {
	Source *model.SourceEntity
	Record *model.LedgerRecord // nil when unmatched
	Kind   model.KeyKind       // KindNone when unmatched
	Key    string              // normalized key value that matched

	// Candidates is the full set that shared the matching key. Ambiguous is
	// set when it holds more than one record; Record is then the first one
	// in fetch order.
	Candidates []*model.LedgerRecord
	Ambiguous  bool
}

// Matched reports whether a ledger record was found.
func (m *MatchResult) Matched() bool { return m.Record != nil }

// Resolve tries each key kind in precedence order and stops at the first
// kind with candidates.
func Resolve(source *model.SourceEntity, ix *Index) MatchResult {
	for _, kind := range precedence {
		key := SourceKey(source, kind)
		cands := ix.Candidates(key)
		if len(cands) == 0 {
			continue
		}
		return MatchResult{
			Source:     source,
			Record:     cands[0],
			Kind:       kind,
			Key:        key.Value,
			Candidates: cands,
			Ambiguous:  len(cands) > 1,
		}
	}
	return MatchResult{Source: source, Kind: model.KindNone}
}
