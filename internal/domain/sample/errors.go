package sample

import "errors"

// Sentinel kinds for sampling errors.
var (
	ErrSampleTooLarge = errors.New("sample size exceeds available users")
)
