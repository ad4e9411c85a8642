// Package apperr defines the sentinel error kinds shared across the archiver.
package apperr

import "errors"

var (
	// ErrInvalidConfig marks a construction-time problem: a missing archive
	// directory, a store without a member rule, a bad mapping-file path.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidInput marks malformed input to a public operation, such as an
	// empty content id or a relative media URL.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupported marks a capability the archive does not provide, such as
	// deleting from an archive that never opted in to deletion.
	ErrUnsupported = errors.New("operation not supported")

	// ErrTransport marks an HTTP-level failure while talking to the server.
	ErrTransport = errors.New("transport failure")
)
