package lichess

import "errors"

// Sentinel kinds for API errors. These allow errors.Is/As from callers.
var (
	// ErrUserNotFound marks a 404 for a username; the fetch loop caches
	// these negatively and moves on.
	ErrUserNotFound = errors.New("user not found")

	// ErrRateLimited marks a 429 that persisted through the backoff retry.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnexpectedStatus wraps any other non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMalformedResponse marks a body that failed to decode.
	ErrMalformedResponse = errors.New("malformed response")
)
