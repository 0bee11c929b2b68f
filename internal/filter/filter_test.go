package filter_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	cachefile "github.com/okian/patzer/internal/adapters/cachefile"
	"github.com/okian/patzer/internal/domain/model"
	filter "github.com/okian/patzer/internal/filter"
	"github.com/okian/patzer/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

func defaultParams() filter.Params {
	return filter.Params{
		Period: model.Period{
			Start: model.NewDate(2020, time.March, 5),
			End:   model.NewDate(2020, time.April, 5),
		},
		Reference: model.Period{
			Start: model.NewDate(2020, time.February, 1),
			End:   model.NewDate(2020, time.March, 1),
		},
		ToleranceDays: 7,
	}
}

func newStore(t *testing.T) *cachefile.Store {
	t.Helper()
	store, err := cachefile.LoadOrEmpty(context.Background(), filepath.Join(t.TempDir(), "perf.json"))
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

// fullHistory has snapshots near all four default boundaries.
func fullHistory() model.PerformanceRecord {
	return model.PerformanceRecord{
		{Date: model.NewDate(2020, time.February, 2), Rating: 1480},  // ref start
		{Date: model.NewDate(2020, time.February, 28), Rating: 1490}, // ref end
		{Date: model.NewDate(2020, time.March, 6), Rating: 1500},     // start
		{Date: model.NewDate(2020, time.April, 4), Rating: 1600},     // end
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache with mixed coverage", t, func() {
		store := newStore(t)
		store.Put("alice", fullHistory())
		// bob has nothing near the period end.
		store.Put("bob", model.PerformanceRecord{
			{Date: model.NewDate(2020, time.February, 1), Rating: 1700},
			{Date: model.NewDate(2020, time.March, 1), Rating: 1710},
			{Date: model.NewDate(2020, time.March, 5), Rating: 1720},
		})
		store.Put("ghost", nil)

		Convey("When applying the filter", func() {
			sample, err := filter.Apply(ctx, store, defaultParams())

			Convey("Then only the fully covered user is kept", func() {
				So(err, ShouldBeNil)
				So(sample.Pairs, ShouldResemble, []model.RatingPair{
					{User: "alice", Before: 1500, After: 1600, RefBefore: 1480, RefAfter: 1490},
				})
			})

			Convey("Then the parameters are recorded in the sample", func() {
				So(err, ShouldBeNil)
				So(sample.Period, ShouldResemble, defaultParams().Period)
				So(sample.Reference, ShouldResemble, defaultParams().Reference)
				So(sample.ToleranceDays, ShouldEqual, 7)
			})
		})

		Convey("When applying the filter twice", func() {
			first, err := filter.Apply(ctx, store, defaultParams())
			So(err, ShouldBeNil)
			second, err := filter.Apply(ctx, store, defaultParams())
			So(err, ShouldBeNil)

			Convey("Then the results are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given a snapshot just outside tolerance", t, func() {
		store := newStore(t)
		history := fullHistory()
		history[3].Date = model.NewDate(2020, time.April, 13) // 8 days past the end boundary
		store.Put("alice", history)

		Convey("When applying the filter", func() {
			sample, err := filter.Apply(ctx, store, defaultParams())

			Convey("Then the user is excluded", func() {
				So(err, ShouldBeNil)
				So(sample.Pairs, ShouldBeEmpty)
			})
		})

		Convey("When the tolerance is widened", func() {
			params := defaultParams()
			params.ToleranceDays = 10
			sample, err := filter.Apply(ctx, store, params)

			Convey("Then the user is included", func() {
				So(err, ShouldBeNil)
				So(len(sample.Pairs), ShouldEqual, 1)
			})
		})
	})

	Convey("Given an empty cache", t, func() {
		store := newStore(t)

		Convey("When applying the filter", func() {
			sample, err := filter.Apply(ctx, store, defaultParams())

			Convey("Then an empty sample is returned, not an error", func() {
				So(err, ShouldBeNil)
				So(sample.Pairs, ShouldBeEmpty)
			})
		})
	})

	Convey("Given invalid parameters", t, func() {
		store := newStore(t)

		Convey("When the period is reversed", func() {
			params := defaultParams()
			params.Period.Start, params.Period.End = params.Period.End, params.Period.Start
			_, err := filter.Apply(ctx, store, params)

			So(errors.Is(err, filter.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When a boundary is missing", func() {
			params := defaultParams()
			params.Reference.End = model.Date{}
			_, err := filter.Apply(ctx, store, params)

			So(errors.Is(err, filter.ErrInvalidParams), ShouldBeTrue)
		})

		Convey("When the tolerance is negative", func() {
			params := defaultParams()
			params.ToleranceDays = -1
			_, err := filter.Apply(ctx, store, params)

			So(errors.Is(err, filter.ErrInvalidParams), ShouldBeTrue)
		})
	})
}
