package core

import "errors"

var (
	// ErrInvalidArg reports a malformed or out-of-range argument.
	ErrInvalidArg = errors.New("invalid argument")

	// ErrNoMemory reports that a bounded capacity is exhausted.
	ErrNoMemory = errors.New("no memory")

	// ErrNotFound reports a query against an id with no data.
	ErrNotFound = errors.New("not found")

	// ErrFieldExpired reports a sample older than the staleness horizon.
	ErrFieldExpired = errors.New("field expired")
)
