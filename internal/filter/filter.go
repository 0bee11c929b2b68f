// Package filter derives the before/after rating pairs for a period from
// the performance cache. The result is deterministic for a given cache and
// parameters: users are visited in sorted order and only snapshot dates
// decide inclusion.
package filter

import (
	"context"
	"fmt"

	"github.com/okian/patzer/internal/adapters/cachefile"
	"github.com/okian/patzer/internal/domain/model"
	"github.com/okian/patzer/pkg/logger"
)

// Params selects which snapshots qualify: the analyzed period, a reference
// period for comparison, and how far (in days) a user's nearest snapshot may
// sit from each boundary.
type Params struct {
	Period        model.Period
	Reference     model.Period
	ToleranceDays int
}

func (p Params) validate() error {
	for _, period := range []model.Period{p.Period, p.Reference} {
		if period.Start.IsZero() || period.End.IsZero() {
			return fmt.Errorf("%w: period boundaries must be set", ErrInvalidParams)
		}
		if period.End.Before(period.Start) {
			return fmt.Errorf("%w: period end %s precedes start %s", ErrInvalidParams, period.End, period.Start)
		}
	}
	if p.ToleranceDays < 0 {
		return fmt.Errorf("%w: tolerance must not be negative", ErrInvalidParams)
	}
	return nil
}

// Apply walks the cache and keeps every user whose history has a snapshot
// within tolerance of all four period boundaries. Users missing any
// boundary are excluded; an empty result is valid and lets sparse periods
// be inspected.
func Apply(ctx context.Context, store *cachefile.Store, p Params) (model.Sample, error) {
	if err := p.validate(); err != nil {
		return model.Sample{}, err
	}

	sample := model.Sample{
		Period:        p.Period,
		Reference:     p.Reference,
		ToleranceDays: p.ToleranceDays,
		Pairs:         []model.RatingPair{},
	}

	store.Each(func(user string, rec model.PerformanceRecord) {
		pair, ok := pairFor(user, rec, p)
		if ok {
			sample.Pairs = append(sample.Pairs, pair)
		}
	})

	logger.Get().Info(ctx, "filtered cache for period",
		logger.String("start", p.Period.Start.String()),
		logger.String("end", p.Period.End.String()),
		logger.Int("matched", len(sample.Pairs)),
		logger.Int("cached", store.Len()))
	return sample, nil
}

// pairFor extracts one user's boundary ratings, or reports false when any
// boundary lacks a snapshot within tolerance.
func pairFor(user string, rec model.PerformanceRecord, p Params) (model.RatingPair, bool) {
	boundaries := []model.Date{p.Period.Start, p.Period.End, p.Reference.Start, p.Reference.End}
	ratings := make([]int, len(boundaries))
	for i, boundary := range boundaries {
		snap, ok := rec.Closest(boundary)
		if !ok || snap.Date.DaysApart(boundary) > p.ToleranceDays {
			return model.RatingPair{}, false
		}
		ratings[i] = snap.Rating
	}
	return model.RatingPair{
		User:      user,
		Before:    ratings[0],
		After:     ratings[1],
		RefBefore: ratings[2],
		RefAfter:  ratings[3],
	}, true
}
