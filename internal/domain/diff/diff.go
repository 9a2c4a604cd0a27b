// Package diff computes the minimal field changes that bring a ledger record
// into agreement with its source entity. The source is authoritative.
package diff

import (
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/normalize"
)

// Engine diffs a configurable set of tracked fields. Identity and status
// fields are always reconciled and need not be listed.
type Engine struct {
	tracked []model.Field
	regions normalize.RegionTable
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTracked sets the fields compared beyond identity and status.
func WithTracked(fields ...model.Field) Option {
	return func(e *Engine) {
		e.tracked = e.tracked[:0]
		for _, f := range fields {
			if !alwaysReconciled(f) {
				e.tracked = append(e.tracked, f)
			}
		}
	}
}

// WithRegions sets the tenant table used for the region field.
func WithRegions(t normalize.RegionTable) Option {
	return func(e *Engine) {
		if t != nil {
			e.regions = t
		}
	}
}

// New constructs an Engine tracking email, phone and name by default.
func New(opts ...Option) *Engine {
	e := &Engine{
		tracked: []model.Field{model.FieldEmail, model.FieldPhone, model.FieldName},
		regions: normalize.DefaultRegions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tracked returns the configured tracked fields.
func (e *Engine) Tracked() []model.Field {
	return append([]model.Field(nil), e.tracked...)
}

func alwaysReconciled(f model.Field) bool {
	switch f {
	case model.FieldEmployeeID, model.FieldListedStatus, model.FieldEmploymentStatus, model.FieldDuplicate:
		return true
	}
	return false
}

// Compute returns the plan for one matched pair. The plan may be empty;
// callers decide whether to submit it.
//
// Changes are ordered identity, tracked fields in configured order, then
// the two status columns.
func (e *Engine) Compute(src *model.SourceEntity, rec *model.LedgerRecord) model.UpdatePlan {
	plan := model.UpdatePlan{RecordID: rec.ID, SourceID: src.ID}

	if id := rec.Fields.EmployeeID; !id.Valid || id.Text != src.ID {
		plan.Changes = append(plan.Changes, model.Change{Field: model.FieldEmployeeID, Value: model.String(src.ID)})
	}

	for _, f := range e.tracked {
		want := e.SourceValue(src, f)
		if want == ledgerValue(f, rec.Fields.Get(f)) {
			continue
		}
		v := model.Null()
		if want != "" {
			v = model.String(want)
		}
		plan.Changes = append(plan.Changes, model.Change{Field: f, Value: v})
	}

	status := normalize.Status(src.Active)
	if strings.TrimSpace(rec.Fields.ListedStatus.Text) != status.Listed {
		plan.Changes = append(plan.Changes, model.Change{Field: model.FieldListedStatus, Value: model.String(status.Listed)})
	}
	if strings.TrimSpace(rec.Fields.EmploymentStatus.Text) != status.Employment {
		plan.Changes = append(plan.Changes, model.Change{Field: model.FieldEmploymentStatus, Value: model.String(status.Employment)})
	}
	return plan
}

// Create returns a plan for a brand-new ledger row holding every non-empty
// tracked value plus identity and status.
func (e *Engine) Create(src *model.SourceEntity) model.UpdatePlan {
	plan := model.UpdatePlan{SourceID: src.ID}
	plan.Changes = append(plan.Changes, model.Change{Field: model.FieldEmployeeID, Value: model.String(src.ID)})
	for _, f := range e.tracked {
		if want := e.SourceValue(src, f); want != "" {
			plan.Changes = append(plan.Changes, model.Change{Field: f, Value: model.String(want)})
		}
	}
	status := normalize.Status(src.Active)
	plan.Changes = append(plan.Changes,
		model.Change{Field: model.FieldListedStatus, Value: model.String(status.Listed)},
		model.Change{Field: model.FieldEmploymentStatus, Value: model.String(status.Employment)},
	)
	return plan
}

// SourceValue returns the canonical ledger form of a source field, or "" for
// no value.
func (e *Engine) SourceValue(src *model.SourceEntity, f model.Field) string {
	switch f {
	case model.FieldEmployeeID:
		return src.ID
	case model.FieldEmail:
		return normalize.Email(src.Email)
	case model.FieldPhone:
		return normalize.Phone(src.Phone)
	case model.FieldName:
		return normalize.Text(src.Name)
	case model.FieldListedStatus:
		return normalize.Status(src.Active).Listed
	case model.FieldEmploymentStatus:
		return normalize.Status(src.Active).Employment
	case model.FieldCredentialNumber:
		return normalize.Text(src.LicenseNumber)
	case model.FieldCredentialExpiry:
		return normalize.Date(src.LicenseExpiry)
	case model.FieldCredentialType:
		return normalize.Text(src.LicenseType)
	case model.FieldRole:
		return normalize.Text(src.Role)
	case model.FieldDepartment:
		return normalize.Text(src.Department)
	case model.FieldCourseData:
		return strings.TrimSpace(src.CourseData)
	case model.FieldRegion:
		return e.regions.Lookup(src.TenantID)
	}
	return ""
}

// ledgerValue canonicalizes a stored cell the same way as the source side.
// A non-blank cell that fails to normalize keeps its trimmed text so that
// garbage is still replaced or cleared.
func ledgerValue(f model.Field, v model.Value) string {
	if v.Blank() {
		return ""
	}
	raw := strings.TrimSpace(v.Text)
	var canon string
	switch f {
	case model.FieldEmail:
		canon = normalize.Email(raw)
	case model.FieldPhone:
		canon = normalize.Phone(raw)
	case model.FieldCredentialExpiry:
		canon = normalize.Date(raw)
	case model.FieldCourseData:
		canon = raw
	default:
		canon = normalize.Text(raw)
	}
	if canon == "" {
		return raw
	}
	return canon
}
