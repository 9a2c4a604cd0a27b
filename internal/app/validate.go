package service

import (
	"fmt"
	"strings"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/normalize"
	"github.com/brian-reel/airtable-heroku/internal/domain/types"
)

// validateEntity returns every problem that keeps s out of matching.
// Optional fields are only checked when present.
func validateEntity(s *model.SourceEntity) []types.ValidationIssue {
	var issues []types.ValidationIssue
	add := func(field model.Field, reason string) {
		issues = append(issues, types.ValidationIssue{
			SourceID: s.ID,
			Field:    field.String(),
			Reason:   fmt.Errorf("%w: %s", ErrValidationFailure, reason).Error(),
		})
	}

	id := strings.TrimSpace(s.ID)
	switch {
	case id == "":
		add(model.FieldEmployeeID, "missing id")
	case strings.TrimLeft(id, "0123456789") != "":
		add(model.FieldEmployeeID, fmt.Sprintf("id %q is not numeric", s.ID))
	}
	if strings.TrimSpace(s.Email) != "" && !normalize.ValidEmail(normalize.Email(s.Email)) {
		add(model.FieldEmail, fmt.Sprintf("malformed email %q", s.Email))
	}
	if strings.TrimSpace(s.Phone) != "" && normalize.Phone(s.Phone) == "" {
		add(model.FieldPhone, fmt.Sprintf("phone %q has fewer than 10 digits", s.Phone))
	}
	if strings.TrimSpace(s.LicenseExpiry) != "" && normalize.Date(s.LicenseExpiry) == "" {
		add(model.FieldCredentialExpiry, fmt.Sprintf("unparseable date %q", s.LicenseExpiry))
	}
	return issues
}
