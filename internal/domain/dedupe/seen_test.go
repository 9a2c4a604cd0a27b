package dedupe

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenSet(t *testing.T) {
	Convey("Given a new seen set", t, func() {
		s := newSeenSet()

		Convey("When an id is recorded twice", func() {
			first := s.SeenAndRecord("rec1")
			second := s.SeenAndRecord("rec1")

			Convey("Then only the second call reports it as seen", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(s.Size(), ShouldEqual, 1)
			})
		})
	})
}
