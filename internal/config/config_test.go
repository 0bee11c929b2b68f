package config_test

import (
	"testing"

	"github.com/okian/patzer/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.APIBaseURL, convey.ShouldEqual, "https://lichess.org")
			convey.So(cfg.RequestPauseMS, convey.ShouldEqual, 1_000)
			convey.So(cfg.RateLimitBackoffMS, convey.ShouldEqual, 61_000)
			convey.So(cfg.PerfFile, convey.ShouldEqual, "perf.json")
			convey.So(cfg.UsersFile, convey.ShouldEqual, "users.json")
			convey.So(cfg.SampleFile, convey.ShouldEqual, "sample.json")
			convey.So(cfg.CheckpointEvery, convey.ShouldEqual, 10)
			convey.So(cfg.HistogramBins, convey.ShouldEqual, 20)
			convey.So(cfg.HistogramLimit, convey.ShouldEqual, 200)
			convey.So(cfg.ToleranceDays, convey.ShouldEqual, 7)
		})
	})
}
