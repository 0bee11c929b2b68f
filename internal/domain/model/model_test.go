package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/patzer/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestDate(t *testing.T) {
	convey.Convey("Given ISO date strings", t, func() {
		convey.Convey("When parsing a valid date", func() {
			d, err := model.ParseDate("2020-03-05")

			convey.Convey("Then it should produce the right components", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(d.Year, convey.ShouldEqual, 2020)
				convey.So(d.Month, convey.ShouldEqual, time.March)
				convey.So(d.Day, convey.ShouldEqual, 5)
				convey.So(d.String(), convey.ShouldEqual, "2020-03-05")
			})
		})

		convey.Convey("When parsing garbage", func() {
			_, err := model.ParseDate("05/03/2020")

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When round-tripping through JSON", func() {
			d := model.NewDate(2020, time.April, 5)
			data, err := json.Marshal(d)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, `"2020-04-05"`)

			var back model.Date
			convey.So(json.Unmarshal(data, &back), convey.ShouldBeNil)
			convey.So(back, convey.ShouldResemble, d)
		})

		convey.Convey("When computing day distances", func() {
			a := model.NewDate(2020, time.March, 5)
			b := model.NewDate(2020, time.March, 12)

			convey.Convey("Then the distance is symmetric", func() {
				convey.So(a.DaysApart(b), convey.ShouldEqual, 7)
				convey.So(b.DaysApart(a), convey.ShouldEqual, 7)
				convey.So(a.DaysApart(a), convey.ShouldEqual, 0)
			})
		})
	})
}

func TestPerformanceRecord(t *testing.T) {
	convey.Convey("Given a performance record", t, func() {
		rec := model.PerformanceRecord{
			{Date: model.NewDate(2020, time.February, 1), Rating: 1500},
			{Date: model.NewDate(2020, time.March, 4), Rating: 1550},
			{Date: model.NewDate(2020, time.April, 6), Rating: 1600},
		}

		convey.Convey("When asking for the current rating", func() {
			current, ok := rec.Current()

			convey.Convey("Then it is the latest snapshot", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(current, convey.ShouldEqual, 1600)
			})
		})

		convey.Convey("When asking for the snapshot closest to a date", func() {
			s, ok := rec.Closest(model.NewDate(2020, time.March, 5))

			convey.Convey("Then the nearest snapshot wins", func() {
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(s.Rating, convey.ShouldEqual, 1550)
			})
		})

		convey.Convey("When the record is nil", func() {
			var empty model.PerformanceRecord

			convey.Convey("Then it has no data", func() {
				convey.So(empty.HasData(), convey.ShouldBeFalse)
				_, ok := empty.Current()
				convey.So(ok, convey.ShouldBeFalse)
				_, ok = empty.Closest(model.NewDate(2020, time.March, 5))
				convey.So(ok, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When a nil record round-trips through JSON", func() {
			data, err := json.Marshal(map[string]model.PerformanceRecord{"ghost": nil})
			convey.So(err, convey.ShouldBeNil)

			var back map[string]model.PerformanceRecord
			convey.So(json.Unmarshal(data, &back), convey.ShouldBeNil)

			convey.Convey("Then the user stays cached without data", func() {
				rec, present := back["ghost"]
				convey.So(present, convey.ShouldBeTrue)
				convey.So(rec.HasData(), convey.ShouldBeFalse)
			})
		})
	})
}

func TestSample(t *testing.T) {
	convey.Convey("Given a filtered sample", t, func() {
		sample := model.Sample{
			Pairs: []model.RatingPair{
				{User: "a", Before: 1500, After: 1600, RefBefore: 1490, RefAfter: 1500},
				{User: "b", Before: 1700, After: 1650, RefBefore: 1700, RefAfter: 1700},
			},
		}

		convey.Convey("When computing deltas", func() {
			convey.So(sample.Deltas(), convey.ShouldResemble, []int{100, -50})
			convey.So(sample.RefDeltas(), convey.ShouldResemble, []int{10, 0})
		})
	})
}
