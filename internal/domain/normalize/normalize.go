// Package normalize turns raw field values into canonical comparable forms.
//
// Every function here is pure and total: bad input yields the empty string
// (or "Unknown" for regions), never an error or a panic.
package normalize

import (
	"net/mail"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/brian-reel/airtable-heroku/internal/domain/model"
)

const (
	phoneDigits = 10
	dateLayout  = "01/02/2006"

	// UnknownRegion is returned for tenants missing from the region table.
	UnknownRegion = "Unknown"
)

// dateLayouts are tried in order. Layouts without a zone parse as UTC.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700 MST",
	dateLayout,
	"1/2/2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Phone keeps the last ten digits of raw. Inputs with fewer than ten digits
// normalize to "".
func Phone(raw string) string {
	digits := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) < phoneDigits {
		return ""
	}
	return string(digits[len(digits)-phoneDigits:])
}

// Date renders a date string as MM/DD/YYYY using UTC calendar fields.
// Unparseable or empty input yields "".
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateFromTime(t)
		}
	}
	return ""
}

// DateFromTime renders t as MM/DD/YYYY in UTC. The zero time yields "".
func DateFromTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// StatusPair holds the two ledger status columns derived from one flag.
type StatusPair struct {
	Listed     string // Active / Inactive
	Employment string // Hired / Separated
}

// Status maps the source active flag onto the ledger's status pair.
func Status(active bool) StatusPair {
	if active {
		return StatusPair{Listed: model.ListedActive, Employment: model.EmploymentHired}
	}
	return StatusPair{Listed: model.ListedInactive, Employment: model.EmploymentSeparate}
}

// RegionTable maps tenant identifiers to state codes.
type RegionTable map[string]string

// DefaultRegions returns a fresh copy of the built-in tenant table.
func DefaultRegions() RegionTable {
	return RegionTable{
		"1": "CA",
		"2": "AZ",
		"3": "NV",
		"4": "TX",
		"5": "WA",
		"6": "OR",
		"7": "CO",
		"8": "FL",
	}
}

// Lookup returns the state code for tenantID, or UnknownRegion.
func (t RegionTable) Lookup(tenantID string) string {
	if code, ok := t[strings.TrimSpace(tenantID)]; ok && code != "" {
		return code
	}
	return UnknownRegion
}

// Region looks tenantID up in the built-in table.
func Region(tenantID string) string {
	return DefaultRegions().Lookup(tenantID)
}

// Email trims and lowercases an address.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmail reports whether a normalized address is a bare, well-formed
// mailbox. Empty input is not valid.
func ValidEmail(email string) bool {
	if email == "" || strings.ContainsAny(email, " <>") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// Text trims and collapses internal whitespace. Used for display values.
func Text(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// Name builds a match key from a display name: lowercase, diacritics and
// periods removed, "Last, First" reordered, whitespace collapsed.
func Name(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = stripDiacritics(s)
	s = strings.ReplaceAll(s, ".", " ")
	if last, first, ok := strings.Cut(s, ","); ok {
		last, first = strings.TrimSpace(last), strings.TrimSpace(first)
		if last != "" && first != "" {
			s = first + " " + last
		} else {
			s = last + first
		}
	}
	return Text(strings.ReplaceAll(s, ",", " "))
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
