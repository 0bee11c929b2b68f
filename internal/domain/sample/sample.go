// Package sample selects the subset of users a fetch run will query.
package sample

import (
	"fmt"
	"math/rand"
)

// Pick returns n users chosen uniformly at random from users. When n equals
// the number of available users the whole list is returned (still shuffled,
// so interrupted runs spread their progress across the population). The
// input slice is not modified.
func Pick(users []string, n int, rng *rand.Rand) ([]string, error) {
	if n > len(users) {
		return nil, fmt.Errorf("%w: requested %d of %d available users", ErrSampleTooLarge, n, len(users))
	}
	if n < 0 {
		n = len(users)
	}

	shuffled := make([]string, len(users))
	copy(shuffled, users)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n], nil
}

// Pending returns the sampled users not yet present in the cache, in sample
// order. A rerun over a fully cached sample yields nothing to fetch.
func Pending(sampled []string, cached func(string) bool) []string {
	pending := make([]string, 0, len(sampled))
	for _, u := range sampled {
		if !cached(u) {
			pending = append(pending, u)
		}
	}
	return pending
}
