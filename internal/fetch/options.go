package fetch

import (
	"math/rand"
	"time"
)

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithCheckpointEvery sets how many newly cached users trigger a flush.
func WithCheckpointEvery(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.checkpointEvery = n
		}
	}
}

// WithMetricsAddr enables the Prometheus listener on addr for the duration
// of the run. Empty keeps it disabled.
func WithMetricsAddr(addr string) Option {
	return func(r *Runner) {
		r.metricsAddr = addr
	}
}

// WithRand injects the sampling source, letting tests fix the shuffle.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		if rng != nil {
			r.rng = rng
		}
	}
}

func defaultRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // sampling needs no cryptographic strength
}
