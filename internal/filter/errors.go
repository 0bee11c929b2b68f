package filter

import "errors"

// Sentinel kinds for filter errors.
var (
	ErrInvalidParams = errors.New("invalid filter parameters")
)
