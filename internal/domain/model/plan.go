package model

// KeyKind identifies which identity key produced a match or a duplicate group.
type KeyKind int

// Key kinds in precedence order. KindNone marks an unmatched result.
const (
	KindNone KeyKind = iota
	KindEmployeeID
	KindEmail
	KindPhone
	KindName
)

func (k KeyKind) String() string {
	switch k {
	case KindEmployeeID:
		return "employee_id"
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	case KindName:
		return "name"
	default:
		return "unmatched"
	}
}

// Change sets one field. A Change whose Value is not Valid clears the field.
type Change struct {
	Field Field
	Value Value
}

// UpdatePlan is the minimal set of field changes for one ledger record.
// An empty RecordID asks the ledger to create a new row.
type UpdatePlan struct {
	RecordID string
	SourceID string // source employee id the plan was derived from, if any
	Changes  []Change
}

// Empty reports whether the plan carries no changes.
func (p *UpdatePlan) Empty() bool { return len(p.Changes) == 0 }

// IsCreate reports whether the plan creates a new ledger row.
func (p *UpdatePlan) IsCreate() bool { return p.RecordID == "" }

// Value returns the change for field and whether the plan carries one.
func (p *UpdatePlan) Value(field Field) (Value, bool) {
	for _, c := range p.Changes {
		if c.Field == field {
			return c.Value, true
		}
	}
	return Value{}, false
}

// Attempted renders the plan's changes keyed by field name, with nil for
// cleared fields.
func (p *UpdatePlan) Attempted() map[string]any {
	out := make(map[string]any, len(p.Changes))
	for _, c := range p.Changes {
		if c.Value.Valid {
			out[c.Field.String()] = c.Value.Text
		} else {
			out[c.Field.String()] = nil
		}
	}
	return out
}

// DuplicateGroup is a set of ledger records sharing one email, phone or name
// value. Survivor is kept; Duplicates are flagged.
type DuplicateGroup struct {
	Kind       KeyKind
	Key        string
	Survivor   *LedgerRecord
	Duplicates []*LedgerRecord
}
