// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// dateLayout is the wire format for calendar dates in cache and sample files.
const dateLayout = "2006-01-02"

// Date is a calendar date without a time component. Rating history
// snapshots are daily, so nothing finer is needed.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a date in ISO 8601 form, e.g. "2020-03-05".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Time returns the date at midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// DaysApart returns the absolute number of days between d and other.
func (d Date) DaysApart(other Date) int {
	diff := d.Time().Sub(other.Time())
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}

// String formats the date in ISO 8601 form.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalJSON encodes the date as an ISO 8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO 8601 date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected a quoted string", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Snapshot is one point in a user's puzzle rating history.
type Snapshot struct {
	Date   Date `json:"date"`
	Rating int  `json:"rating"`
}

// PerformanceRecord is a user's puzzle rating history in chronological
// order. A nil record marks a user who was fetched but has no puzzle
// history, so reruns do not request them again.
type PerformanceRecord []Snapshot

// HasData reports whether the record contains any snapshots.
func (r PerformanceRecord) HasData() bool {
	return len(r) > 0
}

// Current returns the most recent rating, if any.
func (r PerformanceRecord) Current() (int, bool) {
	if len(r) == 0 {
		return 0, false
	}
	return r[len(r)-1].Rating, true
}

// Closest returns the snapshot nearest to target, if the record has data.
func (r PerformanceRecord) Closest(target Date) (Snapshot, bool) {
	if len(r) == 0 {
		return Snapshot{}, false
	}
	best := r[0]
	for _, s := range r[1:] {
		if s.Date.DaysApart(target) < best.Date.DaysApart(target) {
			best = s
		}
	}
	return best, true
}

// RatingPair holds one user's boundary ratings for the analyzed period and
// the reference period.
type RatingPair struct {
	User      string `json:"user"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	RefBefore int    `json:"ref_before"`
	RefAfter  int    `json:"ref_after"`
}

// Delta is the rating change over the analyzed period.
func (p RatingPair) Delta() int { return p.After - p.Before }

// RefDelta is the rating change over the reference period.
func (p RatingPair) RefDelta() int { return p.RefAfter - p.RefBefore }

// Period is a labeled date range.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Sample is the filtered dataset written to the sample file: the users that
// had snapshots within tolerance of all four period boundaries, with the
// parameters that produced them.
type Sample struct {
	Period        Period       `json:"period"`
	Reference     Period       `json:"reference"`
	ToleranceDays int          `json:"tolerance_days"`
	Pairs         []RatingPair `json:"pairs"`
}

// Deltas returns the per-user rating changes for the analyzed period.
func (s Sample) Deltas() []int {
	out := make([]int, len(s.Pairs))
	for i, p := range s.Pairs {
		out[i] = p.Delta()
	}
	return out
}

// RefDeltas returns the per-user rating changes for the reference period.
func (s Sample) RefDeltas() []int {
	out := make([]int, len(s.Pairs))
	for i, p := range s.Pairs {
		out[i] = p.RefDelta()
	}
	return out
}
