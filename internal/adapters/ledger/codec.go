package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

// DefaultColumns are the column names of the employee table.
func DefaultColumns() map[model.Field]string {
	return map[model.Field]string{
		model.FieldEmployeeID:       "RSC Emp ID",
		model.FieldEmail:            "Email",
		model.FieldPhone:            "Phone",
		model.FieldName:             "Name",
		model.FieldListedStatus:     "Status-RSPG",
		model.FieldEmploymentStatus: "Status",
		model.FieldCredentialNumber: "License Number",
		model.FieldCredentialExpiry: "License Expiry",
		model.FieldCredentialType:   "License Type",
		model.FieldRole:             "Role",
		model.FieldDepartment:       "Department",
		model.FieldCourseData:       "Course Data",
		model.FieldRegion:           "State",
		model.FieldDuplicate:        "Duplicate",
	}
}

// Codec translates between typed fields and ledger column names and values.
type Codec struct {
	columns map[model.Field]string
	fields  map[string]model.Field
}

// NewCodec builds a codec from the default columns with overrides keyed by
// field name, e.g. {"employee_id": "Employee Number"}.
func NewCodec(overrides map[string]string) (*Codec, error) {
	columns := DefaultColumns()
	for name, column := range overrides {
		f, err := model.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnknownColumn, err)
		}
		if column = strings.TrimSpace(column); column != "" {
			columns[f] = column
		}
	}
	c := &Codec{columns: columns, fields: make(map[string]model.Field, len(columns))}
	for f, column := range columns {
		if other, dup := c.fields[column]; dup {
			return nil, fmt.Errorf("column %q mapped to both %s and %s", column, other, f)
		}
		c.fields[column] = f
	}
	return c, nil
}

// Column returns the column name of f.
func (c *Codec) Column(f model.Field) string { return c.columns[f] }

// Columns returns the column names of fields, sorted.
func (c *Codec) Columns(fields []model.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if col, ok := c.columns[f]; ok {
			out = append(out, col)
		}
	}
	sort.Strings(out)
	return out
}

// Encode renders changes as a column -> value map. Cleared fields encode as
// nil, which the API receives as JSON null.
func (c *Codec) Encode(changes []model.Change) map[string]any {
	out := make(map[string]any, len(changes))
	for _, ch := range changes {
		col, ok := c.columns[ch.Field]
		if !ok {
			continue
		}
		switch {
		case ch.Field == model.FieldDuplicate:
			out[col] = ch.Value.Valid && strings.EqualFold(ch.Value.Text, "true")
		case !ch.Value.Valid:
			out[col] = nil
		default:
			out[col] = ch.Value.Text
		}
	}
	return out
}

// Decode reads a column -> value map into typed fields. Columns the codec
// does not know are ignored.
func (c *Codec) Decode(raw map[string]any) model.Fields {
	var fields model.Fields
	for col, v := range raw {
		f, ok := c.fields[col]
		if !ok {
			continue
		}
		fields.Set(f, decodeValue(v))
	}
	return fields
}

func decodeValue(v any) model.Value {
	switch x := v.(type) {
	case nil:
		return model.Null()
	case string:
		return model.String(x)
	case bool:
		return model.String(strconv.FormatBool(x))
	case float64:
		return model.String(strconv.FormatFloat(x, 'f', -1, 64))
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s := decodeValue(item); s.Valid {
				parts = append(parts, s.Text)
			}
		}
		if len(parts) == 0 {
			return model.Null()
		}
		return model.String(strings.Join(parts, ", "))
	default:
		return model.String(fmt.Sprint(x))
	}
}
