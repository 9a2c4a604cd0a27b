package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brian-reel/airtable-heroku/internal/adapters/ledger"
	"github.com/brian-reel/airtable-heroku/internal/adapters/repository"
	service "github.com/brian-reel/airtable-heroku/internal/app"
	"github.com/brian-reel/airtable-heroku/internal/domain/dedupe"
	"github.com/brian-reel/airtable-heroku/internal/domain/diff"
	"github.com/brian-reel/airtable-heroku/internal/domain/model"
	"github.com/brian-reel/airtable-heroku/internal/domain/types"
	"github.com/brian-reel/airtable-heroku/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func changeOf(changes []model.Change, f model.Field) (model.Value, bool) {
	for _, c := range changes {
		if c.Field == f {
			return c.Value, true
		}
	}
	return model.Value{}, false
}

func runOnce(job service.Job, opts ...service.Option) (*types.Report, error) {
	opts = append([]service.Option{
		service.WithJobs(job),
		service.WithWriteDelay(0),
		service.WithLogger(logger.NewNop()),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		return nil, err
	}
	defer svc.Stop()
	return svc.Run(context.Background(), job.Name)
}

func janeLedger() *ledger.MemoryStore {
	return ledger.NewMemoryStore(model.LedgerRecord{
		ID: "recA",
		Fields: model.Fields{
			EmployeeID:       model.String("42"),
			Phone:            model.String(""),
			EmploymentStatus: model.String("Separated"),
		},
	})
}

func janeSource() *repository.MemoryStore {
	return repository.NewMemoryStore(model.SourceEntity{
		ID: "42", Name: "Jane Doe", Active: true, Phone: "(555) 123-4567",
	})
}

func TestPass_EndToEnd(t *testing.T) {
	Convey("Given a rehired employee whose ledger row is stale", t, func() {
		store := janeLedger()
		job := service.Job{
			Name:   "contacts",
			Table:  "Employees",
			Source: janeSource(),
			Ledger: store,
			Engine: diff.New(diff.WithTracked(model.FieldPhone)),
		}

		Convey("When a pass runs", func() {
			report, err := runOnce(job)
			So(err, ShouldBeNil)

			Convey("Then exactly the stale fields are written", func() {
				writes := store.Writes()
				So(writes, ShouldHaveLength, 1)
				So(writes[0].RecordID, ShouldEqual, "recA")
				So(writes[0].Changes, ShouldHaveLength, 3)

				phone, _ := changeOf(writes[0].Changes, model.FieldPhone)
				So(phone, ShouldResemble, model.String("5551234567"))
				emp, _ := changeOf(writes[0].Changes, model.FieldEmploymentStatus)
				So(emp, ShouldResemble, model.String("Hired"))
				listed, _ := changeOf(writes[0].Changes, model.FieldListedStatus)
				So(listed, ShouldResemble, model.String("Active"))
				_, touched := changeOf(writes[0].Changes, model.FieldEmployeeID)
				So(touched, ShouldBeFalse)
			})

			Convey("Then the report accounts for the pass", func() {
				So(report.State, ShouldEqual, "reported")
				So(report.Job, ShouldEqual, "contacts")
				So(report.Table, ShouldEqual, "Employees")
				So(report.PassID, ShouldNotBeBlank)
				So(report.SourceRows, ShouldEqual, 1)
				So(report.LedgerRows, ShouldEqual, 1)
				So(report.Matched["employee_id"], ShouldEqual, 1)
				So(report.PlansGenerated, ShouldEqual, 1)
				So(report.Succeeded, ShouldEqual, 1)
				So(report.Failed, ShouldEqual, 0)
			})
		})

		Convey("When the pass runs twice", func() {
			svc := service.New(service.WithJobs(job), service.WithWriteDelay(0), service.WithLogger(logger.NewNop()))
			So(svc.Start(context.Background()), ShouldBeNil)
			_, err := svc.Run(context.Background(), "contacts")
			So(err, ShouldBeNil)
			second, err := svc.Run(context.Background(), "contacts")
			So(err, ShouldBeNil)

			Convey("Then the second pass has nothing to do", func() {
				So(second.PlansGenerated, ShouldEqual, 0)
				So(store.Writes(), ShouldHaveLength, 1)
			})
		})

		Convey("When the ledger is wrapped for a dry run", func() {
			job.Ledger = ledger.NewDryRun(store, logger.NewNop())
			job.DryRun = true
			report, err := runOnce(job)
			So(err, ShouldBeNil)

			Convey("Then nothing reaches the ledger", func() {
				So(store.Writes(), ShouldBeEmpty)
				So(report.DryRun, ShouldBeTrue)
				So(report.Succeeded, ShouldEqual, 1)
			})
		})
	})
}

func TestPass_LoadFailure(t *testing.T) {
	Convey("Given a source store that cannot be read", t, func() {
		src := janeSource()
		src.FailWith(errors.New("connection refused"))
		store := janeLedger()

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store})

		Convey("Then the pass fails with a load failure and writes nothing", func() {
			So(errors.Is(err, service.ErrLoadFailure), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(report.State, ShouldEqual, "failed")
			So(report.Error, ShouldContainSubstring, "connection refused")
			So(store.Writes(), ShouldBeEmpty)
		})
	})

	Convey("Given a ledger that cannot be read", t, func() {
		store := janeLedger()
		store.FailFetch(ledger.ErrUnavailable)

		report, err := runOnce(service.Job{Name: "contacts", Source: janeSource(), Ledger: store})

		Convey("Then the pass fails after loading the source", func() {
			So(errors.Is(err, service.ErrLoadFailure), ShouldBeTrue)
			So(errors.Is(err, ledger.ErrUnavailable), ShouldBeTrue)
			So(report.SourceRows, ShouldEqual, 1)
			So(report.State, ShouldEqual, "failed")
			So(store.Writes(), ShouldBeEmpty)
		})
	})
}

func TestPass_PartialFailure(t *testing.T) {
	Convey("Given five stale records where the third write fails", t, func() {
		var (
			rows    []model.SourceEntity
			records []model.LedgerRecord
		)
		for i := 1; i <= 5; i++ {
			id := fmt.Sprint(i)
			rows = append(rows, model.SourceEntity{ID: id, Name: "Worker " + id, Active: true})
			records = append(records, model.LedgerRecord{
				ID: "rec" + id,
				Fields: model.Fields{
					EmployeeID:       model.String(id),
					Name:             model.String("Worker " + id),
					ListedStatus:     model.String("Inactive"),
					EmploymentStatus: model.String("Separated"),
				},
			})
		}
		store := ledger.NewMemoryStore(records...)
		store.FailUpdate("rec3", errors.New("422 invalid value"))

		report, err := runOnce(service.Job{
			Name:   "contacts",
			Source: repository.NewMemoryStore(rows...),
			Ledger: store,
		})

		Convey("Then the other four are applied and the failure is reported", func() {
			So(err, ShouldBeNil)
			So(report.State, ShouldEqual, "reported")
			So(report.Applied, ShouldEqual, 5)
			So(report.Succeeded, ShouldEqual, 4)
			So(report.Failed, ShouldEqual, 1)
			So(report.Failures, ShouldHaveLength, 1)
			So(report.Failures[0].RecordID, ShouldEqual, "rec3")
			So(report.Failures[0].SourceID, ShouldEqual, "3")
			So(report.Failures[0].Attempted, ShouldContainKey, "employment_status")
			So(report.Failures[0].Error, ShouldContainSubstring, "422 invalid value")
			So(store.Writes(), ShouldHaveLength, 5)
		})
	})
}

func TestPass_ValidationAndCanonical(t *testing.T) {
	Convey("Given source rows with bad values and a re-hire", t, func() {
		src := repository.NewMemoryStore(
			model.SourceEntity{ID: "abc", Name: "Bad Id"},
			model.SourceEntity{ID: "10", Name: "Short Phone", Phone: "555-1234"},
			model.SourceEntity{ID: "11", Name: "Bad Mail", Email: "not-an-email"},
			model.SourceEntity{ID: "20", PersonID: "p1", Name: "Old Hire", Active: false},
			model.SourceEntity{ID: "21", PersonID: "p1", Name: "New Hire", Active: true},
		)
		store := ledger.NewMemoryStore(model.LedgerRecord{
			ID: "recP",
			Fields: model.Fields{
				EmployeeID:       model.String("21"),
				Name:             model.String("New Hire"),
				ListedStatus:     model.String("Active"),
				EmploymentStatus: model.String("Hired"),
			},
		})

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store})

		Convey("Then invalid rows are skipped and recorded", func() {
			So(err, ShouldBeNil)
			So(report.SourceRows, ShouldEqual, 5)
			So(report.Invalid, ShouldHaveLength, 3)
			So(report.Invalid[0].SourceID, ShouldEqual, "abc")
			So(report.Invalid[1].Field, ShouldEqual, "phone")
			So(report.Invalid[2].Field, ShouldEqual, "email")
		})

		Convey("Then the re-hire collapses to the active row", func() {
			So(report.CanonicalRows, ShouldEqual, 1)
			So(report.Matched["employee_id"], ShouldEqual, 1)
			So(report.PlansGenerated, ShouldEqual, 0)
			So(store.Writes(), ShouldBeEmpty)
		})
	})
}

func TestPass_ConflictsAndAmbiguity(t *testing.T) {
	Convey("Given two sources claiming one record and an id held twice", t, func() {
		src := repository.NewMemoryStore(
			model.SourceEntity{ID: "7", Email: "shared@example.com", Active: true},
			model.SourceEntity{ID: "8", Email: "Shared@Example.com", Active: true},
			model.SourceEntity{ID: "9", Active: false},
		)
		store := ledger.NewMemoryStore(
			model.LedgerRecord{ID: "recC", Fields: model.Fields{Email: model.String("shared@example.com")}},
			model.LedgerRecord{ID: "recD", Fields: model.Fields{EmployeeID: model.String("9")}},
			model.LedgerRecord{ID: "recE", Fields: model.Fields{EmployeeID: model.String("9")}},
		)

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store})
		So(err, ShouldBeNil)

		Convey("Then only the first claim is diffed", func() {
			So(report.Conflicts, ShouldHaveLength, 1)
			So(report.Conflicts[0].RecordID, ShouldEqual, "recC")
			So(report.Conflicts[0].SourceIDs, ShouldResemble, []string{"7", "8"})

			var recC []ledger.Write
			for _, w := range store.Writes() {
				if w.RecordID == "recC" {
					recC = append(recC, w)
				}
			}
			So(recC, ShouldHaveLength, 1)
			id, _ := changeOf(recC[0].Changes, model.FieldEmployeeID)
			So(id, ShouldResemble, model.String("7"))
		})

		Convey("Then the ambiguous match uses the first record and is reported", func() {
			So(report.Ambiguous, ShouldHaveLength, 1)
			So(report.Ambiguous[0].RecordID, ShouldEqual, "recD")
			So(report.Ambiguous[0].Candidates, ShouldResemble, []string{"recD", "recE"})
			So(report.Collisions, ShouldHaveLength, 1)
			So(report.Collisions[0].EmployeeID, ShouldEqual, "9")
		})
	})
}

func TestPass_RehireUnderNewID(t *testing.T) {
	Convey("Given a re-hire with an old and a new employee id sharing an email", t, func() {
		old := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
		recent := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		src := repository.NewMemoryStore(
			model.SourceEntity{ID: "10", Email: "jane@example.com", Active: false, UpdatedAt: old},
			model.SourceEntity{ID: "20", Email: "jane@example.com", Active: true, UpdatedAt: recent},
		)
		store := ledger.NewMemoryStore(model.LedgerRecord{ID: "recA", Fields: model.Fields{
			EmployeeID:       model.String("20"),
			Email:            model.String("jane@example.com"),
			ListedStatus:     model.String("Active"),
			EmploymentStatus: model.String("Hired"),
		}})

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store})

		Convey("Then the employee id claim wins and the linked record is left alone", func() {
			So(err, ShouldBeNil)
			So(report.Conflicts, ShouldHaveLength, 1)
			So(report.Conflicts[0].RecordID, ShouldEqual, "recA")
			So(report.Conflicts[0].SourceIDs, ShouldResemble, []string{"20", "10"})
			So(report.PlansGenerated, ShouldEqual, 0)
			So(store.Writes(), ShouldBeEmpty)
		})
	})

	Convey("Given an inactive and an active row matching one record by email only", t, func() {
		old := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
		recent := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
		src := repository.NewMemoryStore(
			model.SourceEntity{ID: "30", Email: "sam@example.com", Active: false, UpdatedAt: recent},
			model.SourceEntity{ID: "31", Email: "sam@example.com", Active: true, UpdatedAt: old},
		)
		store := ledger.NewMemoryStore(model.LedgerRecord{ID: "recB", Fields: model.Fields{
			Email: model.String("sam@example.com"),
		}})

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store})

		Convey("Then the active row is diffed regardless of source order", func() {
			So(err, ShouldBeNil)
			So(report.Conflicts[0].SourceIDs, ShouldResemble, []string{"31", "30"})

			writes := store.Writes()
			So(writes, ShouldHaveLength, 1)
			id, _ := changeOf(writes[0].Changes, model.FieldEmployeeID)
			So(id, ShouldResemble, model.String("31"))
			emp, _ := changeOf(writes[0].Changes, model.FieldEmploymentStatus)
			So(emp, ShouldResemble, model.String("Hired"))
		})
	})
}

func TestPass_CreateMissing(t *testing.T) {
	Convey("Given unmatched sources and a job that creates rows", t, func() {
		src := repository.NewMemoryStore(
			model.SourceEntity{ID: "50", Name: "New Person", Email: "new@example.com", Active: true},
			model.SourceEntity{ID: "51", Name: "Gone Person", Active: false},
		)
		store := ledger.NewMemoryStore()

		report, err := runOnce(service.Job{Name: "contacts", Source: src, Ledger: store, CreateMissing: true})

		Convey("Then only the active one is created", func() {
			So(err, ShouldBeNil)
			So(report.Unmatched, ShouldEqual, 2)
			So(report.Creates, ShouldEqual, 1)
			So(report.Succeeded, ShouldEqual, 1)

			recs := store.Records()
			So(recs, ShouldHaveLength, 1)
			So(recs[0].Fields.EmployeeID, ShouldResemble, model.String("50"))
			So(recs[0].Fields.Email, ShouldResemble, model.String("new@example.com"))
			So(recs[0].Fields.ListedStatus, ShouldResemble, model.String("Active"))
		})
	})
}

func TestPass_Duplicates(t *testing.T) {
	Convey("Given a stray ledger row sharing an email with a current one", t, func() {
		src := repository.NewMemoryStore(model.SourceEntity{
			ID: "42", Name: "Jane Doe", Email: "jane@example.com", Active: true,
		})
		store := ledger.NewMemoryStore(
			model.LedgerRecord{ID: "recB", Fields: model.Fields{
				Email:            model.String("jane@example.com"),
				Name:             model.String("J. Doe"),
				ListedStatus:     model.String("Inactive"),
				EmploymentStatus: model.String("Separated"),
			}},
			model.LedgerRecord{ID: "recA", Fields: model.Fields{
				EmployeeID:       model.String("42"),
				Email:            model.String("jane@example.com"),
				Name:             model.String("Jane Doe"),
				ListedStatus:     model.String("Active"),
				EmploymentStatus: model.String("Hired"),
			}},
		)

		report, err := runOnce(service.Job{
			Name:     "contacts",
			Source:   src,
			Ledger:   store,
			Detector: dedupe.New(),
		})

		Convey("Then the stray row is flagged and the active one survives", func() {
			So(err, ShouldBeNil)
			So(report.DuplicateGroups, ShouldEqual, 1)
			So(report.DuplicatesFlagged, ShouldEqual, 1)

			writes := store.Writes()
			So(writes, ShouldHaveLength, 1)
			So(writes[0].RecordID, ShouldEqual, "recB")
			flag, _ := changeOf(writes[0].Changes, model.FieldDuplicate)
			So(flag, ShouldResemble, model.String("true"))

			for _, r := range store.Records() {
				So(r.Fields.Duplicate, ShouldEqual, r.ID == "recB")
			}
		})
	})
}

func TestPass_ReportFile(t *testing.T) {
	Convey("Given a service with a report directory", t, func() {
		dir := t.TempDir()
		report, err := runOnce(service.Job{
			Name:   "contacts",
			Source: janeSource(),
			Ledger: janeLedger(),
		}, service.WithReportDir(dir))
		So(err, ShouldBeNil)

		Convey("Then one JSON report per pass is written", func() {
			files, err := filepath.Glob(filepath.Join(dir, "contacts-*.json"))
			So(err, ShouldBeNil)
			So(files, ShouldHaveLength, 1)

			raw, err := os.ReadFile(files[0])
			So(err, ShouldBeNil)
			var got types.Report
			So(json.Unmarshal(raw, &got), ShouldBeNil)
			So(got.PassID, ShouldEqual, report.PassID)
			So(got.Succeeded, ShouldEqual, 1)
		})
	})
}
