package stats

import (
	"fmt"
	"strings"
)

// Default histogram rendering width in characters.
const defaultBarWidth = 50

// Bin is one fixed-width histogram bucket covering [Lo, Hi).
// The last bin of a histogram also includes its upper bound.
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram buckets rating deltas into fixed-width bins. Deltas with an
// absolute value above the configured limit are dropped before bucketing,
// matching how outliers are excluded from the change plots.
type Histogram struct {
	Bins    []Bin
	Dropped int
}

// NewHistogram builds a histogram of deltas with the given number of bins,
// dropping values with |delta| > limit. A non-positive limit keeps all
// values.
func NewHistogram(deltas []int, bins, limit int) Histogram {
	if bins <= 0 {
		bins = 1
	}

	var kept []int
	var dropped int
	for _, d := range deltas {
		if limit > 0 && (d > limit || d < -limit) {
			dropped++
			continue
		}
		kept = append(kept, d)
	}

	h := Histogram{Dropped: dropped}
	if len(kept) == 0 {
		return h
	}

	lo, hi := kept[0], kept[0]
	for _, d := range kept[1:] {
		if d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	// A degenerate range still gets one non-empty bucket.
	if lo == hi {
		h.Bins = []Bin{{Lo: float64(lo), Hi: float64(lo + 1), Count: len(kept)}}
		return h
	}

	width := float64(hi-lo) / float64(bins)
	h.Bins = make([]Bin, bins)
	for i := range h.Bins {
		h.Bins[i].Lo = float64(lo) + float64(i)*width
		h.Bins[i].Hi = float64(lo) + float64(i+1)*width
	}
	for _, d := range kept {
		idx := int(float64(d-lo) / width)
		if idx >= bins { // d == hi lands in the last bin
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h
}

// Render formats the histogram as ASCII rows, one per bin, with bars scaled
// to the most populated bin.
func (h Histogram) Render() string {
	if len(h.Bins) == 0 {
		return "(no data)\n"
	}

	maxCount := 0
	for _, b := range h.Bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	var sb strings.Builder
	for _, b := range h.Bins {
		bar := 0
		if maxCount > 0 {
			bar = b.Count * defaultBarWidth / maxCount
		}
		fmt.Fprintf(&sb, "[%7.1f, %7.1f) %6d %s\n", b.Lo, b.Hi, b.Count, strings.Repeat("#", bar))
	}
	if h.Dropped > 0 {
		fmt.Fprintf(&sb, "(%d outliers dropped)\n", h.Dropped)
	}
	return sb.String()
}
