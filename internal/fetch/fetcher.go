// Package fetch runs the resumable acquisition loop: sample users, skip the
// ones already cached, pull puzzle histories one by one at a rate-limit
// friendly pace, and checkpoint the cache so a multi-day run survives being
// killed at any point.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/okian/patzer/internal/adapters/cachefile"
	"github.com/okian/patzer/internal/adapters/lichess"
	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/internal/domain/sample"
	"github.com/okian/patzer/pkg/logger"
	"github.com/okian/patzer/pkg/metrics"
)

// progressEvery controls how often the loop logs a progress line.
const progressEvery = 10

// Client is the slice of the lichess API the fetch loop depends on.
type Client interface {
	PuzzleHistory(ctx context.Context, username string) (model.PerformanceRecord, error)
}

// Stats summarizes one fetch run.
type Stats struct {
	RunID         string
	Sampled       int
	AlreadyCached int
	Fetched       int
	NoData        int
	NotFound      int
	Failed        int
	Checkpoints   int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// Runner drives the fetch loop against a cache store.
type Runner struct {
	client          Client
	store           *cachefile.Store
	checkpointEvery int
	metricsAddr     string
	rng             *rand.Rand
}

// New creates a Runner with configuration options.
func New(client Client, store *cachefile.Store, opts ...Option) *Runner {
	r := &Runner{
		client:          client,
		store:           store,
		checkpointEvery: 10,
		rng:             defaultRand(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run samples numUsers from users and fetches every sampled user missing
// from the cache. Per-user failures are logged and skipped; the run only
// aborts on cancellation or a cache flush failure. The sample-size check
// happens before any network activity.
func (r *Runner) Run(ctx context.Context, users []string, numUsers int) (Stats, error) {
	stats := Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Named("fetch")

	sampled, err := sample.Pick(users, numUsers, r.rng)
	if err != nil {
		return stats, err
	}
	stats.Sampled = len(sampled)

	pending := sample.Pending(sampled, r.store.Has)
	stats.AlreadyCached = len(sampled) - len(pending)

	log.Info(ctx, "starting fetch run",
		logger.String("run_id", stats.RunID),
		logger.Int("sampled", stats.Sampled),
		logger.Int("cached", stats.AlreadyCached),
		logger.Int("pending", len(pending)))

	metrics.UpdateCacheSize(r.store.Len())
	metrics.UpdatePendingSize(len(pending))

	stopMetrics := r.serveMetrics(ctx)
	defer stopMetrics()

	dirty := 0
	checkpoint := func() error {
		if dirty == 0 {
			return nil
		}
		if err := r.store.Flush(ctx); err != nil {
			return fmt.Errorf("checkpointing cache: %w", err)
		}
		dirty = 0
		stats.Checkpoints++
		metrics.RecordCheckpoint()
		return nil
	}

	for i, user := range pending {
		select {
		case <-ctx.Done():
			// Keep what we have; the next run resumes from here.
			if err := checkpoint(); err != nil {
				return r.finish(ctx, stats), err
			}
			return r.finish(ctx, stats), fmt.Errorf("fetch interrupted: %w", ctx.Err())
		default:
		}

		start := time.Now()
		record, err := r.client.PuzzleHistory(ctx, user)
		metrics.RecordRequestDuration(time.Since(start).Seconds())

		switch {
		case errors.Is(err, lichess.ErrUserNotFound):
			// Negative-cache unknown users so reruns skip them too.
			r.store.Put(user, nil)
			dirty++
			stats.NotFound++
			metrics.RecordUserNotFound()
			log.Warn(ctx, "user does not exist, skipping", logger.String("user", user))
		case errors.Is(err, lichess.ErrRateLimited):
			stats.Failed++
			metrics.RecordRateLimitHit()
			log.Warn(ctx, "still rate limited after backoff, skipping", logger.String("user", user))
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			// Cancelled mid-request: not a per-user failure, stop the run.
			if cerr := checkpoint(); cerr != nil {
				return r.finish(ctx, stats), cerr
			}
			return r.finish(ctx, stats), fmt.Errorf("fetch interrupted: %w", err)
		case err != nil:
			// Transient failure: leave un-cached so a rerun retries.
			stats.Failed++
			metrics.RecordFetchError()
			log.Warn(ctx, "failed to fetch user, skipping",
				logger.String("user", user), logger.Error(err))
		case record.HasData():
			r.store.Put(user, record)
			dirty++
			stats.Fetched++
			metrics.RecordUserFetched()
		default:
			// Exists but never solved puzzles; cache that fact.
			r.store.Put(user, nil)
			dirty++
			stats.NoData++
			metrics.RecordUserNoData()
		}

		metrics.UpdateCacheSize(r.store.Len())
		metrics.UpdatePendingSize(len(pending) - i - 1)

		if dirty >= r.checkpointEvery {
			if err := checkpoint(); err != nil {
				return r.finish(ctx, stats), err
			}
		}

		if (i+1)%progressEvery == 0 {
			log.Debug(ctx, "fetch progress",
				logger.Int("checked", i+1),
				logger.Int("pending", len(pending)),
				logger.Int("with_data", stats.Fetched),
				logger.Int("cache_total", r.store.Len()))
		}
	}

	if err := checkpoint(); err != nil {
		return r.finish(ctx, stats), err
	}
	return r.finish(ctx, stats), nil
}

// finish stamps the stats and logs the run summary.
func (r *Runner) finish(ctx context.Context, stats Stats) Stats {
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	logger.Named("fetch").Info(ctx, "fetch run finished",
		logger.String("run_id", stats.RunID),
		logger.Int("sampled", stats.Sampled),
		logger.Int("already_cached", stats.AlreadyCached),
		logger.Int("fetched", stats.Fetched),
		logger.Int("no_data", stats.NoData),
		logger.Int("not_found", stats.NotFound),
		logger.Int("failed", stats.Failed),
		logger.Int("checkpoints", stats.Checkpoints),
		logger.Int("cache_total", r.store.Len()),
		logger.String("duration", stats.Duration.String()))
	return stats
}
