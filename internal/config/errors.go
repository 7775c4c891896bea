package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoInput is returned when neither a domain file nor a domain
	// argument was given.
	ErrNoInput = errors.New("no input specified: provide domains or use --input")

	// ErrInvalidTimeout is returned when a timeout is not positive or the
	// connect timeout is not shorter than the read timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive, with connect timeout below read timeout")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidRetries is returned when fewer than one attempt per
	// candidate is configured.
	ErrInvalidRetries = errors.New("invalid retries: must be at least 1")

	// ErrInvalidThreshold is returned when the distance threshold is
	// outside 0..64.
	ErrInvalidThreshold = errors.New("invalid threshold: must be between 0 and 64")

	// ErrInvalidPrefix is returned when the bucket prefix or radius is
	// outside its range.
	ErrInvalidPrefix = errors.New("invalid prefix: bits must be between 1 and 64, radius between 0 and bits")

	// ErrInvalidRate is returned when the per-host interval is negative.
	ErrInvalidRate = errors.New("invalid host interval: must be non-negative")

	// ErrInvalidMinSize is returned when the minimum logo size is not positive.
	ErrInvalidMinSize = errors.New("invalid minimum logo size: must be positive")

	// ErrInvalidMaxBodySize is returned when the body limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrUnknownGroupFormat is returned for an unsupported group output format.
	ErrUnknownGroupFormat = errors.New("unknown group format: use csv, markdown, xlsx or json")
)
