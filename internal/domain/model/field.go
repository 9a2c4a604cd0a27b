// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// Field names one ledger attribute the engine knows how to reconcile.
// The ledger's own column names are attached at the store boundary.
type Field int

// Known fields. The zero value is not a field.
const (
	FieldEmployeeID Field = iota + 1
	FieldEmail
	FieldPhone
	FieldName
	FieldListedStatus
	FieldEmploymentStatus
	FieldCredentialNumber
	FieldCredentialExpiry
	FieldCredentialType
	FieldRole
	FieldDepartment
	FieldCourseData
	FieldRegion
	FieldDuplicate
)

var fieldNames = map[Field]string{
	FieldEmployeeID:       "employee_id",
	FieldEmail:            "email",
	FieldPhone:            "phone",
	FieldName:             "name",
	FieldListedStatus:     "listed_status",
	FieldEmploymentStatus: "employment_status",
	FieldCredentialNumber: "credential_number",
	FieldCredentialExpiry: "credential_expiry",
	FieldCredentialType:   "credential_type",
	FieldRole:             "role",
	FieldDepartment:       "department",
	FieldCourseData:       "course_data",
	FieldRegion:           "region",
	FieldDuplicate:        "duplicate",
}

// String returns the configuration name of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// ParseField maps a configuration name (case-insensitive) to a Field.
func ParseField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// AllFields returns every known field in declaration order.
func AllFields() []Field {
	out := make([]Field, 0, len(fieldNames))
	for f := FieldEmployeeID; f <= FieldDuplicate; f++ {
		out = append(out, f)
	}
	return out
}

// Value is a nullable ledger cell. A Value that is not Valid means "no value"
// and, inside an update plan, "clear this field".
type Value struct {
	Text  string
	Valid bool
}

// String returns a present value.
func String(s string) Value { return Value{Text: s, Valid: true} }

// Null returns the absent value.
func Null() Value { return Value{} }

// Blank reports whether the value is null or only whitespace.
// Blank and null ledger cells are treated alike.
func (v Value) Blank() bool {
	return !v.Valid || strings.TrimSpace(v.Text) == ""
}

// Or returns the text, or def when the value is blank.
func (v Value) Or(def string) string {
	if v.Blank() {
		return def
	}
	return v.Text
}
