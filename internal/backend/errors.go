package backend

import (
	"errors"
	"fmt"
)

// Kind classifies backend and pipeline errors into the closed set the
// rest of the system branches on.
type Kind string

const (
	// KindTransport covers network failures, timeouts, and 5xx responses.
	// Transport errors are retried with bounded exponential backoff.
	KindTransport Kind = "transport"

	// KindValidation covers malformed documents or filters. Validation
	// errors fail locally and never abort a whole batch.
	KindValidation Kind = "validation"

	// KindSchemaConflict means the target index exists with an
	// incompatible mapping and force_recreate is false. Fatal to the
	// operation.
	KindSchemaConflict Kind = "schema_conflict"

	// KindNotFound covers missing documents or indices.
	KindNotFound Kind = "not_found"

	// KindProvider covers embedding-provider quota and rate errors.
	KindProvider Kind = "provider"

	// KindCancelled means the caller's context was cancelled; no partial
	// result is returned.
	KindCancelled Kind = "cancelled"
)

// Error is the taxonomy-carrying error type for backend operations.
type Error struct {
	Kind Kind   // Classification for callers that branch on kind
	Op   string // Operation that failed, e.g. "bulk_write"
	Msg  string // Human-readable detail
	Err  error  // Wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified backend error.
func NewError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the classification of err, or an empty Kind when err
// carries none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// IsKind reports whether err carries the given classification.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether an operation that produced err may be
// retried. Only transport and provider errors are transient.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransport, KindProvider:
		return true
	}
	return false
}
