// Command patzer analyzes lichess puzzle performance: it samples users,
// fetches their puzzle rating histories into a resumable JSON cache, and
// reports percentile ranks and change-over-time statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/okian/patzer/internal/adapters/cachefile"
	"github.com/okian/patzer/internal/adapters/lichess"
	"github.com/okian/patzer/internal/config"
	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/internal/domain/stats"
	"github.com/okian/patzer/internal/fetch"
	"github.com/okian/patzer/internal/filter"
	"github.com/okian/patzer/internal/report"
	"github.com/okian/patzer/pkg/logger"
)

// Default flag values for the fetch and filter subcommands.
const (
	defaultNumUsers = 10000
	defaultStart    = "2020-03-05"
	defaultEnd      = "2020-04-05"
	defaultRefStart = "2020-02-01"
	defaultRefEnd   = "2020-03-01"
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("patzer: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Initialize logging
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Root context with cancel on SIGINT/SIGTERM; an interrupted fetch
	// checkpoints and resumes on the next invocation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if len(os.Args) < 2 {
		showHelp()
		return fmt.Errorf("missing command")
	}

	switch cmd := os.Args[1]; cmd {
	case "users":
		return runUsers(ctx, cfg, os.Args[2:])
	case "fetch":
		return runFetch(ctx, cfg, os.Args[2:])
	case "filter":
		return runFilter(ctx, cfg, os.Args[2:])
	case "stats":
		return runStats(ctx, cfg, os.Args[2:])
	case "dist":
		return runDist(ctx, cfg, os.Args[2:])
	case "help", "-help", "--help", "-h":
		showHelp()
		return nil
	default:
		showHelp()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newClient builds the API client from config.
func newClient(cfg *config.Config) *lichess.Client {
	return lichess.New(
		lichess.WithBaseURL(cfg.APIBaseURL),
		lichess.WithTimeout(time.Duration(cfg.HTTPTimeoutMS)*time.Millisecond),
		lichess.WithPause(time.Duration(cfg.RequestPauseMS)*time.Millisecond),
		lichess.WithBackoff(time.Duration(cfg.RateLimitBackoffMS)*time.Millisecond),
	)
}

// runUsers populates the users file from current tournament results.
func runUsers(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	userFile := fs.String("userfile", cfg.UsersFile, "Filename for cached (json) usernames")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := newClient(cfg).TournamentUsers(ctx)
	if err != nil {
		return fmt.Errorf("collecting tournament users: %w", err)
	}
	if err := cachefile.SaveUsers(*userFile, users); err != nil {
		return err
	}
	logger.Get().Info(ctx, "saved users", logger.Int("count", len(users)), logger.String("file", *userFile))
	return nil
}

// runFetch extends the performance cache from the users file.
func runFetch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	userFile := fs.String("userfile", cfg.UsersFile, "Filename for cached (json) usernames")
	perfFile := fs.String("perffile", cfg.PerfFile, "Filename for cached (json) user puzzle performance")
	numUsers := fs.Int("num-users", defaultNumUsers, "Number of users to process")
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := cachefile.LoadUsers(*userFile)
	if err != nil {
		return fmt.Errorf("loading users file (run \"patzer users\" to create one): %w", err)
	}

	store, err := cachefile.LoadOrEmpty(ctx, *perfFile)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "loaded performance cache",
		logger.Int("users", store.Len()), logger.String("file", *perfFile))

	runner := fetch.New(newClient(cfg), store,
		fetch.WithCheckpointEvery(cfg.CheckpointEvery),
		fetch.WithMetricsAddr(cfg.MetricsAddr),
	)
	if _, err := runner.Run(ctx, users, *numUsers); err != nil {
		return err
	}
	return nil
}

// runFilter derives the before/after sample for a period from the cache.
func runFilter(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	perfFile := fs.String("perffile", cfg.PerfFile, "Filename for cached (json) user puzzle performance")
	sampleFile := fs.String("samplefile", cfg.SampleFile, "Filename for the filtered (json) before/after sample")
	start := fs.String("start", defaultStart, "Period start date (YYYY-MM-DD)")
	end := fs.String("end", defaultEnd, "Period end date (YYYY-MM-DD)")
	refStart := fs.String("ref-start", defaultRefStart, "Reference period start date (YYYY-MM-DD)")
	refEnd := fs.String("ref-end", defaultRefEnd, "Reference period end date (YYYY-MM-DD)")
	tolerance := fs.Int("tolerance", cfg.ToleranceDays, "Max days between a snapshot and a period boundary")
	if err := fs.Parse(args); err != nil {
		return err
	}

	params, err := parseParams(*start, *end, *refStart, *refEnd, *tolerance)
	if err != nil {
		return err
	}

	store, err := cachefile.Load(ctx, *perfFile)
	if err != nil {
		return err
	}

	sample, err := filter.Apply(ctx, store, params)
	if err != nil {
		return err
	}
	if err := cachefile.SaveSample(*sampleFile, sample); err != nil {
		return err
	}
	logger.Get().Info(ctx, "saved filtered sample",
		logger.Int("users", len(sample.Pairs)), logger.String("file", *sampleFile))
	return nil
}

// runStats prints the change-over-time report from a filtered sample.
func runStats(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	sampleFile := fs.String("samplefile", cfg.SampleFile, "Filename for the filtered (json) before/after sample")
	bins := fs.Int("bins", cfg.HistogramBins, "Number of histogram bins")
	limit := fs.Int("limit", cfg.HistogramLimit, "Drop deltas with |delta| above this before bucketing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sample, err := cachefile.LoadSample(*sampleFile)
	if err != nil {
		return fmt.Errorf("loading sample (run \"patzer filter\" to create one): %w", err)
	}

	logger.Get().Debug(ctx, "loaded filtered sample", logger.Int("users", len(sample.Pairs)))
	report.Changes(os.Stdout, sample, *bins, *limit)
	return nil
}

// runDist prints the percentile rank of a rating against the cache.
func runDist(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dist", flag.ContinueOnError)
	perfFile := fs.String("perffile", cfg.PerfFile, "Filename for cached (json) user puzzle performance")
	ratingArg, rest := leadingArg(args)
	if err := fs.Parse(rest); err != nil {
		return err
	}
	switch {
	case ratingArg == "" && fs.NArg() == 1:
		ratingArg = fs.Arg(0)
	case ratingArg != "" && fs.NArg() == 0:
	default:
		return fmt.Errorf("usage: patzer dist <rating> [--perffile path]")
	}
	rating, err := strconv.Atoi(ratingArg)
	if err != nil {
		return fmt.Errorf("invalid rating %q: %w", ratingArg, err)
	}

	store, err := cachefile.Load(ctx, *perfFile)
	if err != nil {
		return err
	}

	dist := stats.NewDistribution(store.CurrentRatings())
	if dist.Size() == 0 {
		return fmt.Errorf("cache %s has no users with puzzle data", *perfFile)
	}
	report.Dist(os.Stdout, rating, dist)
	return nil
}

// leadingArg splits a leading positional off args, so a command can take
// its positional argument before the flags (stdlib flag parsing stops at
// the first non-flag otherwise).
func leadingArg(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

// parseParams validates the filter dates into filter.Params.
func parseParams(start, end, refStart, refEnd string, tolerance int) (filter.Params, error) {
	var params filter.Params
	var err error

	dates := []struct {
		value  string
		target *model.Date
	}{
		{start, &params.Period.Start},
		{end, &params.Period.End},
		{refStart, &params.Reference.Start},
		{refEnd, &params.Reference.End},
	}
	for _, d := range dates {
		if *d.target, err = model.ParseDate(d.value); err != nil {
			return filter.Params{}, err
		}
	}
	params.ToleranceDays = tolerance
	return params, nil
}

// showHelp prints usage information.
func showHelp() {
	os.Stdout.WriteString(`patzer - lichess puzzle performance analysis
============================================

Fetches puzzle rating histories for a sample of lichess users into a local
JSON cache, then reports descriptive statistics over it.

Usage:
  patzer <command> [options]

Commands:
  users    Populate the users file from current tournament results
  fetch    Fetch puzzle histories for sampled users into the perf cache
  filter   Derive before/after rating pairs for a period from the cache
  stats    Print mean increase/decrease and a delta histogram
  dist     Print the percentile rank of a rating against the cache
  help     Show this help message

Common options:
  users  [--userfile users.json]
  fetch  [--userfile users.json] [--perffile perf.json] [--num-users 10000]
  filter [--perffile perf.json] [--samplefile sample.json]
         [--start 2020-03-05] [--end 2020-04-05]
         [--ref-start 2020-02-01] [--ref-end 2020-03-01] [--tolerance 7]
  stats  [--samplefile sample.json] [--bins 20] [--limit 200]
  dist   <rating> [--perffile perf.json]

Configuration:
  Defaults can be overridden with PATZER_* environment variables (e.g.
  PATZER_REQUEST_PAUSE_MS=2000) or a YAML file pointed at by PATZER_CONFIG.
  Setting PATZER_METRICS_ADDR exposes Prometheus metrics during fetch.

Examples:
  # Build a users file, then fetch 10000 sampled users (resumable)
  patzer users
  patzer fetch --num-users 10000

  # Compare March 2020 against February 2020
  patzer filter --start 2020-03-05 --end 2020-04-05 \
      --ref-start 2020-02-01 --ref-end 2020-03-01
  patzer stats

  # Where does a 1500 puzzle rating sit?
  patzer dist 1500
`)
}
