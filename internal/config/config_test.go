package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/config"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func validConfig() *config.Config {
	cfg := config.New(context.Background())
	cfg.Jobs = []config.Job{{Name: "licenses", Table: "Employees", Tracked: []string{"phone"}}}
	return cfg
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.Interval, convey.ShouldEqual, time.Duration(0))
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := validConfig()
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("When a tracked field is unknown", func() {
			cfg.Jobs[0].Tracked = []string{"salary"}
			err := cfg.Validate()

			convey.Convey("Then validation fails naming the field error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrUnknownField), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When two jobs share a name", func() {
			cfg.Jobs = append(cfg.Jobs, config.Job{Name: "licenses", Table: "Other"})
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a job has no table", func() {
			cfg.Jobs[0].Table = " "
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When a delay is negative", func() {
			cfg.Ledger.WriteDelay = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the driver is unsupported", func() {
			cfg.Source.Driver = "mysql"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the log format is unknown", func() {
			cfg.LogFormat = "xml"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}

func TestJob(t *testing.T) {
	convey.Convey("Given a job with overrides", t, func() {
		disabled := false
		job := config.Job{
			Name:          "training",
			Table:         "Training",
			Tracked:       []string{"course_data", "Department"},
			IdentityField: "Emp #",
			Columns:       map[string]string{"phone": "Mobile"},
		}

		convey.Convey("Then helpers derive engine inputs", func() {
			fields, err := job.TrackedFields()
			convey.So(err, convey.ShouldBeNil)
			convey.So(fields, convey.ShouldResemble, []model.Field{model.FieldCourseData, model.FieldDepartment})
			convey.So(job.ColumnOverrides(), convey.ShouldResemble, map[string]string{
				"phone":       "Mobile",
				"employee_id": "Emp #",
			})
			convey.So(job.PurposeKey(), convey.ShouldEqual, "training")
			convey.So(job.IsEnabled(), convey.ShouldBeTrue)
		})

		convey.Convey("When it is disabled", func() {
			job.Enabled = &disabled
			convey.So(job.IsEnabled(), convey.ShouldBeFalse)
		})
	})
}
