// Package stats computes the descriptive statistics reported by the CLI:
// percentile ranks against a rating distribution and summaries of rating
// changes over a period. Purely descriptive, no inference.
package stats

import (
	"sort"
)

// Distribution is a sorted collection of rating samples used for
// percentile lookups.
type Distribution struct {
	scores []int
}

// NewDistribution builds a Distribution from unordered rating samples.
func NewDistribution(scores []int) Distribution {
	sorted := make([]int, len(scores))
	copy(sorted, scores)
	sort.Ints(sorted)
	return Distribution{scores: sorted}
}

// Size returns the number of samples.
func (d Distribution) Size() int {
	return len(d.scores)
}

// PercentileRank returns the share of samples strictly below rating, as a
// percentage in [0, 100]. The distribution must be non-empty.
func (d Distribution) PercentileRank(rating int) float64 {
	if len(d.scores) == 0 {
		return 0
	}
	below := sort.SearchInts(d.scores, rating)
	return float64(below) / float64(len(d.scores)) * 100
}

// ChangeSummary describes how a set of rating deltas is split between
// improvements and regressions.
type ChangeSummary struct {
	Total         int
	Mean          float64
	Increased     int
	IncreasedMean float64
	Decreased     int
	DecreasedMean float64
}

// IncreasedShare is the fraction of deltas that improved, in [0, 1].
func (s ChangeSummary) IncreasedShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Increased) / float64(s.Total)
}

// DecreasedShare is the fraction of deltas that regressed, in [0, 1].
func (s ChangeSummary) DecreasedShare() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Decreased) / float64(s.Total)
}

// Summarize computes a ChangeSummary over the given deltas. An empty input
// yields zero counts, so sparse periods can still be inspected.
func Summarize(deltas []int) ChangeSummary {
	summary := ChangeSummary{Total: len(deltas)}
	if len(deltas) == 0 {
		return summary
	}

	var total, incSum, decSum int
	for _, d := range deltas {
		total += d
		switch {
		case d > 0:
			summary.Increased++
			incSum += d
		case d < 0:
			summary.Decreased++
			decSum += d
		}
	}

	summary.Mean = float64(total) / float64(len(deltas))
	if summary.Increased > 0 {
		summary.IncreasedMean = float64(incSum) / float64(summary.Increased)
	}
	if summary.Decreased > 0 {
		summary.DecreasedMean = float64(decSum) / float64(summary.Decreased)
	}
	return summary
}
