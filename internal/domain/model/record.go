package model

import (
	"strings"
	"time"
)

// Status literals written to the ledger.
const (
	ListedActive       = "Active"
	ListedInactive     = "Inactive"
	EmploymentHired    = "Hired"
	EmploymentSeparate = "Separated"
)

// SourceEntity is one employee-derived row from the system of record.
// Several rows may describe the same person (re-hires, duplicate entry);
// PersonID links them when the source query can provide it.
type SourceEntity struct {
	ID        string    // employee id, numeric, unique per employment record
	PersonID  string    // optional person-level key shared by re-hire rows
	Name      string    // display name
	Email     string    // optional
	Phone     string    // optional, free-form
	Active    bool      // employment is current
	TenantID  string    // tenant/company identifier used for region lookup
	UpdatedAt time.Time // zero when unknown
	CreatedAt time.Time // zero when unknown

	// Purpose-specific payload.
	LicenseNumber string
	LicenseExpiry string // raw date, any supported layout; empty when none
	LicenseType   string
	Role          string
	Department    string
	CourseData    string
}

// Recency returns UpdatedAt, falling back to CreatedAt.
func (s *SourceEntity) Recency() time.Time {
	if !s.UpdatedAt.IsZero() {
		return s.UpdatedAt
	}
	return s.CreatedAt
}

// Fields is the typed view of a ledger row. Column names never appear here.
type Fields struct {
	EmployeeID       Value
	Email            Value
	Phone            Value
	Name             Value
	ListedStatus     Value
	EmploymentStatus Value
	CredentialNumber Value
	CredentialExpiry Value
	CredentialType   Value
	Role             Value
	Department       Value
	CourseData       Value
	Region           Value
	Duplicate        bool
}

// Get returns the value held for field. The duplicate flag reads as "true"
// when set and Null otherwise.
func (f *Fields) Get(field Field) Value {
	switch field {
	case FieldEmployeeID:
		return f.EmployeeID
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldName:
		return f.Name
	case FieldListedStatus:
		return f.ListedStatus
	case FieldEmploymentStatus:
		return f.EmploymentStatus
	case FieldCredentialNumber:
		return f.CredentialNumber
	case FieldCredentialExpiry:
		return f.CredentialExpiry
	case FieldCredentialType:
		return f.CredentialType
	case FieldRole:
		return f.Role
	case FieldDepartment:
		return f.Department
	case FieldCourseData:
		return f.CourseData
	case FieldRegion:
		return f.Region
	case FieldDuplicate:
		if f.Duplicate {
			return String("true")
		}
		return Null()
	}
	return Null()
}

// Set stores v under field. Unknown fields are ignored.
func (f *Fields) Set(field Field, v Value) {
	switch field {
	case FieldEmployeeID:
		f.EmployeeID = v
	case FieldEmail:
		f.Email = v
	case FieldPhone:
		f.Phone = v
	case FieldName:
		f.Name = v
	case FieldListedStatus:
		f.ListedStatus = v
	case FieldEmploymentStatus:
		f.EmploymentStatus = v
	case FieldCredentialNumber:
		f.CredentialNumber = v
	case FieldCredentialExpiry:
		f.CredentialExpiry = v
	case FieldCredentialType:
		f.CredentialType = v
	case FieldRole:
		f.Role = v
	case FieldDepartment:
		f.Department = v
	case FieldCourseData:
		f.CourseData = v
	case FieldRegion:
		f.Region = v
	case FieldDuplicate:
		f.Duplicate = v.Valid && strings.EqualFold(strings.TrimSpace(v.Text), "true")
	}
}

// LedgerRecord is one row of the external ledger table.
type LedgerRecord struct {
	ID         string // assigned by the ledger, immutable
	Fields     Fields
	CreatedAt  time.Time
	ModifiedAt time.Time // zero when the ledger does not report it
}

// Active reports whether either status column says the person is current.
func (r *LedgerRecord) Active() bool {
	return strings.EqualFold(strings.TrimSpace(r.Fields.ListedStatus.Text), ListedActive) ||
		strings.EqualFold(strings.TrimSpace(r.Fields.EmploymentStatus.Text), EmploymentHired)
}

// Recency returns ModifiedAt, falling back to CreatedAt.
func (r *LedgerRecord) Recency() time.Time {
	if !r.ModifiedAt.IsZero() {
		return r.ModifiedAt
	}
	return r.CreatedAt
}

// Apply writes changes onto the record's fields.
func (r *LedgerRecord) Apply(changes []Change) {
	for _, c := range changes {
		r.Fields.Set(c.Field, c.Value)
	}
}
