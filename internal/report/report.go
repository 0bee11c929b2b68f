// Package report renders the computed statistics for the console. Output
// goes to an io.Writer so tests can capture it; the CLI passes stdout.
package report

import (
	"fmt"
	"io"

	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/internal/domain/stats"
)

// Dist writes the percentile rank of rating within dist.
func Dist(w io.Writer, rating int, dist stats.Distribution) {
	fmt.Fprintf(w, "Rating %d is higher than %.2f%% of %d sampled puzzle ratings\n",
		rating, dist.PercentileRank(rating), dist.Size())
}

// Changes writes the change-over-time report for a filtered sample: the
// improvement/regression split and a delta histogram for the analyzed
// period and the reference period.
func Changes(w io.Writer, sample model.Sample, bins, limit int) {
	sections := []struct {
		label  string
		period model.Period
		deltas []int
	}{
		{"period", sample.Period, sample.Deltas()},
		{"reference period", sample.Reference, sample.RefDeltas()},
	}

	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		summary := stats.Summarize(sec.deltas)
		fmt.Fprintf(w, "In %s %.0f%% improved with a mean improvement of %.0f, %.0f%% regressed with a mean decrease of %.0f\n",
			sec.label,
			summary.IncreasedShare()*100, summary.IncreasedMean,
			summary.DecreasedShare()*100, summary.DecreasedMean)
		fmt.Fprintf(w, "Overall mean delta of %.0f across %d users\n", summary.Mean, summary.Total)

		fmt.Fprintf(w, "Change in puzzle performance from %s to %s:\n", sec.period.Start, sec.period.End)
		fmt.Fprint(w, stats.NewHistogram(sec.deltas, bins, limit).Render())
	}
}
