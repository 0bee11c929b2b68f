package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/internal/domain/stats"
	report "github.com/okian/patzer/internal/report"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDist(t *testing.T) {
	Convey("Given the five-sample distribution", t, func() {
		dist := stats.NewDistribution([]int{1000, 1200, 1400, 1600, 1800})

		Convey("When reporting a rating of 1400", func() {
			var buf bytes.Buffer
			report.Dist(&buf, 1400, dist)

			Convey("Then the percentile is printed to two decimals", func() {
				So(buf.String(), ShouldEqual, "Rating 1400 is higher than 40.00% of 5 sampled puzzle ratings\n")
			})
		})
	})
}

func TestChanges(t *testing.T) {
	Convey("Given a filtered sample with one gain and one loss", t, func() {
		sample := model.Sample{
			Period: model.Period{
				Start: model.NewDate(2020, time.March, 5),
				End:   model.NewDate(2020, time.April, 5),
			},
			Reference: model.Period{
				Start: model.NewDate(2020, time.February, 1),
				End:   model.NewDate(2020, time.March, 1),
			},
			ToleranceDays: 7,
			Pairs: []model.RatingPair{
				{User: "a", Before: 1500, After: 1600, RefBefore: 1500, RefAfter: 1510},
				{User: "b", Before: 1700, After: 1650, RefBefore: 1700, RefAfter: 1690},
			},
		}

		Convey("When rendering the change report", func() {
			var buf bytes.Buffer
			report.Changes(&buf, sample, 4, 200)
			out := buf.String()

			Convey("Then both periods are reported with their means", func() {
				So(out, ShouldContainSubstring, "In period 50% improved with a mean improvement of 100, 50% regressed with a mean decrease of -50")
				So(out, ShouldContainSubstring, "In reference period 50% improved with a mean improvement of 10, 50% regressed with a mean decrease of -10")
				So(out, ShouldContainSubstring, "Overall mean delta of 25 across 2 users")
				So(out, ShouldContainSubstring, "from 2020-03-05 to 2020-04-05")
				So(out, ShouldContainSubstring, "from 2020-02-01 to 2020-03-01")
			})
		})
	})

	Convey("Given an empty sample", t, func() {
		sample := model.Sample{
			Period: model.Period{
				Start: model.NewDate(2020, time.March, 5),
				End:   model.NewDate(2020, time.April, 5),
			},
			Reference: model.Period{
				Start: model.NewDate(2020, time.February, 1),
				End:   model.NewDate(2020, time.March, 1),
			},
		}

		Convey("When rendering the change report", func() {
			var buf bytes.Buffer
			report.Changes(&buf, sample, 20, 200)
			out := buf.String()

			Convey("Then zero counts are reported instead of failing", func() {
				So(out, ShouldContainSubstring, "Overall mean delta of 0 across 0 users")
				So(out, ShouldContainSubstring, "(no data)")
			})
		})
	})
}
