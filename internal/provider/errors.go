// Package provider classifies errors returned by the external directory,
// calendar and mail providers. Ingestion retries transient errors with
// backoff; reconciliation isolates them per entity but aborts the whole pass
// on a fatal one.
package provider

import "errors"

// TransientError marks a recoverable provider failure (network hiccup,
// rate limit, 5xx).
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient provider error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks an unrecoverable provider failure (missing calendar,
// revoked credentials). It aborts the surrounding pass.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal provider error: " + e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// Transient wraps err as recoverable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Fatal wraps err as unrecoverable. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsTransient reports whether err carries a TransientError anywhere in its chain.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsFatal reports whether err carries a FatalError anywhere in its chain.
func IsFatal(err error) bool {
	var f *FatalError
	return errors.As(err, &f)
}
