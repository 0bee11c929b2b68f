// Package config defines tool configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// APIBaseURL points at the lichess API.
	APIBaseURL string `koanf:"api_base_url"`

	// RequestPauseMS spaces sequential API requests apart.
	RequestPauseMS int `koanf:"request_pause_ms"`

	// RateLimitBackoffMS is the wait after a 429 before the single retry.
	RateLimitBackoffMS int `koanf:"rate_limit_backoff_ms"`

	// HTTPTimeoutMS bounds each API request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// UsersFile, PerfFile and SampleFile are the default flat-file paths;
	// subcommand flags override them per invocation.
	UsersFile  string `koanf:"users_file"`
	PerfFile   string `koanf:"perf_file"`
	SampleFile string `koanf:"sample_file"`

	// CheckpointEvery flushes the perf cache to disk after this many newly
	// fetched users, so an interrupted run loses at most one batch.
	CheckpointEvery int `koanf:"checkpoint_every"`

	// MetricsAddr serves Prometheus metrics during fetch when non-empty,
	// e.g. "localhost:9091". Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`

	// HistogramBins and HistogramLimit shape the stats output: deltas with
	// |delta| > limit are dropped before bucketing into bins.
	HistogramBins  int `koanf:"histogram_bins"`
	HistogramLimit int `koanf:"histogram_limit"`

	// ToleranceDays is how far a snapshot may sit from a period boundary
	// and still count for that boundary.
	ToleranceDays int `koanf:"tolerance_days"`
}

// New creates a Config populated with defaults. The rate-limit defaults
// mirror the lichess API's documented one minute penalty window.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		APIBaseURL:         "https://lichess.org",
		RequestPauseMS:     1_000,
		RateLimitBackoffMS: 61_000,
		HTTPTimeoutMS:      30_000,
		UsersFile:          "users.json",
		PerfFile:           "perf.json",
		SampleFile:         "sample.json",
		CheckpointEvery:    10,
		MetricsAddr:        "",
		HistogramBins:      20,
		HistogramLimit:     200,
		ToleranceDays:      7,
	}
}
