package rate

import "errors"

var (
	// ErrRateLimited reports that the caller exhausted the failure budget.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps any Redis transport failure.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
