package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors rather than values built
// inside Validate() so callers can use errors.Is() while the messages stay
// human readable.
var (
	// ErrNoSeeds is returned when no seed URL is provided, either as
	// arguments or via the seeds list in the config file.
	ErrNoSeeds = errors.New("no seeds specified: provide onion URLs or a seeds list in the config file")

	// ErrInvalidTimeout is returned when the per-request timeout is not
	// positive. A zero timeout would make every fetch fail immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPoolSize is returned when the worker pool size is not
	// positive. A pool of zero workers can never drain the backlog.
	ErrInvalidPoolSize = errors.New("invalid pool size: must be positive")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	// Depth 0 is valid and fetches only the seed pages.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidDelay is returned when the request delay or jitter is
	// negative. Use 0 to disable spacing between requests.
	ErrInvalidDelay = errors.New("invalid delay: delay and jitter must be non-negative")

	// ErrInvalidRetries is returned when the retry budget is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
