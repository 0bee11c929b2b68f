package cachefile

import "errors"

// Sentinel kinds for cache file errors.
var (
	ErrNotFound  = errors.New("cache file not found")
	ErrMalformed = errors.New("malformed cache file")
)
