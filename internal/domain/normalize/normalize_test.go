package normalize_test

import (
	"testing"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPhone(t *testing.T) {
	Convey("Given raw phone strings", t, func() {
		cases := map[string]string{
			"(555) 123-4567":   "5551234567",
			"+1 555 123 4567":  "5551234567",
			"555.123.4567 x":   "5551234567",
			"5551234567":       "5551234567",
			"123-4567":         "",
			"":                 "",
			"no digits at all": "",
		}

		Convey("Then the last ten digits are kept or the result is empty", func() {
			for raw, want := range cases {
				So(normalize.Phone(raw), ShouldEqual, want)
			}
		})

		Convey("Then normalization is idempotent", func() {
			for raw := range cases {
				once := normalize.Phone(raw)
				So(normalize.Phone(once), ShouldEqual, once)
			}
		})
	})
}

func TestDate(t *testing.T) {
	Convey("Given date strings", t, func() {
		Convey("When the value is an ISO date", func() {
			So(normalize.Date("2023-01-15"), ShouldEqual, "01/15/2023")
		})

		Convey("When the value is empty or garbage", func() {
			So(normalize.Date(""), ShouldEqual, "")
			So(normalize.Date("not-a-date"), ShouldEqual, "")
			So(normalize.Date("13/45/2023"), ShouldEqual, "")
		})

		Convey("When the value is a timestamp with an offset", func() {
			Convey("Then UTC calendar fields are used", func() {
				So(normalize.Date("2023-01-15T00:00:00Z"), ShouldEqual, "01/15/2023")
				So(normalize.Date("2023-01-14T22:00:00-05:00"), ShouldEqual, "01/15/2023")
			})
		})

		Convey("When the value is already in ledger form", func() {
			So(normalize.Date("01/15/2023"), ShouldEqual, "01/15/2023")
			So(normalize.Date("1/5/2023"), ShouldEqual, "01/05/2023")
			So(normalize.Date("Jan 5, 2023"), ShouldEqual, "01/05/2023")
		})

		Convey("Then normalization is idempotent", func() {
			for _, raw := range []string{"2023-01-15", "1/5/2023", "garbage", "", "2023-12-31 23:59:59"} {
				once := normalize.Date(raw)
				So(normalize.Date(once), ShouldEqual, once)
			}
		})

		Convey("When given a time value", func() {
			loc := time.FixedZone("PST", -8*3600)
			So(normalize.DateFromTime(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)), ShouldEqual, "01/15/2023")
			So(normalize.DateFromTime(time.Date(2023, 1, 15, 20, 0, 0, 0, loc)), ShouldEqual, "01/16/2023")
			So(normalize.DateFromTime(time.Time{}), ShouldEqual, "")
		})
	})
}

func TestStatus(t *testing.T) {
	Convey("Given the active flag", t, func() {
		So(normalize.Status(true), ShouldResemble, normalize.StatusPair{Listed: "Active", Employment: "Hired"})
		So(normalize.Status(false), ShouldResemble, normalize.StatusPair{Listed: "Inactive", Employment: "Separated"})
	})
}

func TestRegion(t *testing.T) {
	Convey("Given tenant identifiers", t, func() {
		So(normalize.Region("1"), ShouldEqual, "CA")
		So(normalize.Region(" 4 "), ShouldEqual, "TX")
		So(normalize.Region("999"), ShouldEqual, normalize.UnknownRegion)
		So(normalize.Region(""), ShouldEqual, "Unknown")

		Convey("When a custom table is supplied", func() {
			table := normalize.RegionTable{"acme": "UT", "blank": ""}

			So(table.Lookup("acme"), ShouldEqual, "UT")
			So(table.Lookup("blank"), ShouldEqual, "Unknown")
			So(table.Lookup("1"), ShouldEqual, "Unknown")
		})
	})
}

func TestEmailAndNames(t *testing.T) {
	Convey("Given emails", t, func() {
		So(normalize.Email("  Jane.Doe@Example.COM "), ShouldEqual, "jane.doe@example.com")
		So(normalize.ValidEmail("jane.doe@example.com"), ShouldBeTrue)
		So(normalize.ValidEmail(""), ShouldBeFalse)
		So(normalize.ValidEmail("jane"), ShouldBeFalse)
		So(normalize.ValidEmail("jane@localhost"), ShouldBeFalse)
		So(normalize.ValidEmail("Jane <jane@example.com>"), ShouldBeFalse)
	})

	Convey("Given display names", t, func() {
		So(normalize.Text("  Jane   Doe "), ShouldEqual, "Jane Doe")
		So(normalize.Name("  Jane   Doe "), ShouldEqual, "jane doe")
		So(normalize.Name("Doe, Jane"), ShouldEqual, "jane doe")
		So(normalize.Name("José Núñez"), ShouldEqual, "jose nunez")
		So(normalize.Name("J. R. Smith"), ShouldEqual, "j r smith")
		So(normalize.Name("   "), ShouldEqual, "")

		Convey("Then name keys are idempotent", func() {
			for _, raw := range []string{"Doe, Jane", "a,b,c", "Zoë  O'Neil", ", Jane"} {
				once := normalize.Name(raw)
				So(normalize.Name(once), ShouldEqual, once)
			}
		})
	})
}
