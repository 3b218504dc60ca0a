package track

import "github.com/cockroachdb/errors"

// Provider-side failures. Clients mark concrete errors with these so callers
// can classify them with errors.Is.
var (
	ErrNotFound    = errors.New("track not found")
	ErrUnplayable  = errors.New("no playable audio for track")
	ErrRateLimited = errors.New("upstream rate limited")
	ErrUpstream    = errors.New("upstream error")
	ErrNetwork     = errors.New("network error")
)
