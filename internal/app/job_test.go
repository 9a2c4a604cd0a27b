package service

import (
	"testing"

	"github.com/brian-reel/airtable-heroku/internal/domain/dedupe"
	"github.com/brian-reel/airtable-heroku/internal/domain/diff"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJobFetchFields(t *testing.T) {
	Convey("Given a job that does not flag duplicates", t, func() {
		job := &Job{Engine: diff.New(diff.WithTracked(model.FieldPhone, model.FieldRegion))}
		fields := job.fetchFields()

		Convey("Then the duplicate column is left out", func() {
			So(fields, ShouldNotContain, model.FieldDuplicate)
		})

		Convey("Then match keys, statuses and tracked fields are read once each", func() {
			So(fields, ShouldContain, model.FieldEmployeeID)
			So(fields, ShouldContain, model.FieldEmploymentStatus)
			So(fields, ShouldContain, model.FieldRegion)
			So(len(fields), ShouldEqual, 7)
		})
	})

	Convey("Given a job with a duplicate detector", t, func() {
		job := &Job{Engine: diff.New(), Detector: dedupe.New()}

		Convey("Then the duplicate column is read", func() {
			So(job.fetchFields(), ShouldContain, model.FieldDuplicate)
		})
	})
}
