package stats_test

import (
	"strings"
	"testing"

	stats "github.com/okian/patzer/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewHistogram(t *testing.T) {
	Convey("Given a spread of deltas", t, func() {
		deltas := []int{-100, -50, 0, 10, 20, 30, 100}

		Convey("When bucketing into 4 bins", func() {
			h := stats.NewHistogram(deltas, 4, 200)

			Convey("Then every delta lands in exactly one bin", func() {
				So(len(h.Bins), ShouldEqual, 4)
				total := 0
				for _, b := range h.Bins {
					total += b.Count
				}
				So(total, ShouldEqual, len(deltas))
				So(h.Dropped, ShouldEqual, 0)
			})

			Convey("Then the bins tile the delta range", func() {
				So(h.Bins[0].Lo, ShouldEqual, -100.0)
				So(h.Bins[3].Hi, ShouldEqual, 100.0)
				for i := 1; i < len(h.Bins); i++ {
					So(h.Bins[i].Lo, ShouldEqual, h.Bins[i-1].Hi)
				}
			})

			Convey("Then the maximum value lands in the last bin", func() {
				So(h.Bins[3].Count, ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When a limit excludes outliers", func() {
			h := stats.NewHistogram(deltas, 4, 60)

			Convey("Then the outliers are counted as dropped", func() {
				So(h.Dropped, ShouldEqual, 2) // -100 and 100
				total := 0
				for _, b := range h.Bins {
					total += b.Count
				}
				So(total, ShouldEqual, 5)
			})
		})
	})

	Convey("Given degenerate inputs", t, func() {
		Convey("When all deltas are equal", func() {
			h := stats.NewHistogram([]int{7, 7, 7}, 20, 200)

			Convey("Then a single bucket holds them all", func() {
				So(len(h.Bins), ShouldEqual, 1)
				So(h.Bins[0].Count, ShouldEqual, 3)
			})
		})

		Convey("When there are no deltas", func() {
			h := stats.NewHistogram(nil, 20, 200)

			Convey("Then rendering reports no data", func() {
				So(len(h.Bins), ShouldEqual, 0)
				So(h.Render(), ShouldContainSubstring, "no data")
			})
		})
	})
}

func TestHistogramRender(t *testing.T) {
	Convey("Given a bucketed histogram", t, func() {
		h := stats.NewHistogram([]int{-10, 0, 0, 10, 250}, 2, 200)
		out := h.Render()

		Convey("Then there is one row per bin plus the dropped note", func() {
			lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
			So(len(lines), ShouldEqual, 3)
			So(lines[2], ShouldContainSubstring, "1 outliers dropped")
		})

		Convey("Then the fullest bin gets the longest bar", func() {
			So(out, ShouldContainSubstring, "#")
		})
	})
}
