package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { _ = Sync() }()

		Convey("Then a global logger is available", func() {
			So(Get(), ShouldNotBeNil)
			So(Named("test"), ShouldNotBeNil)
		})
	})

	Convey("Given an unknown format", t, func() {
		Convey("Then Init fails", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("JSON"), WithOutput(&buf)), ShouldBeNil)

		Convey("When a named logger writes a message", func() {
			Named("sync").Info(context.Background(), "pass finished",
				String("job", "licenses"),
				Int("plans", 3),
				Bool("dry_run", true),
				Duration("took", 1500*time.Millisecond),
			)

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)

			Convey("Then the fields are structured", func() {
				So(line["msg"], ShouldEqual, "pass finished")
				So(line["logger"], ShouldEqual, "sync")
				So(line["job"], ShouldEqual, "licenses")
				So(line["plans"], ShouldEqual, 3.0)
				So(line["dry_run"], ShouldEqual, true)
				So(line["took"], ShouldEqual, "1.5s")
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "shown")

			Convey("Then only the warning is written", func() {
				So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
				So(buf.String(), ShouldContainSubstring, "shown")
			})
		})
	})

	Convey("Given an invalid level", t, func() {
		So(SetLevelString("loud"), ShouldNotBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given a nop logger", t, func() {
		l := NewNop()

		Convey("Then logging does nothing and does not panic", func() {
			So(func() { l.Named("x").Error(context.Background(), "dropped", Error(nil)) }, ShouldNotPanic)
		})
	})
}
