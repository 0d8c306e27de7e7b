package search

import (
	"errors"
	"fmt"
)

// Controller construction and usage errors.
var (
	ErrNilSearchFunc   = errors.New("search function cannot be nil")
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrInvalidDebounce = errors.New("debounce duration cannot be negative")
	ErrClosed          = errors.New("controller is closed")
	ErrInvalidFilter   = errors.New("invalid filter expression")
)

// SearchError wraps a failure reported by the injected search capability.
// It is never returned to callers; it is surfaced through Snapshot.Err.
//
//nolint:revive // SearchError is the canonical name for this exported type.
type SearchError struct {
	// Seq is the sequence number of the failed fetch.
	Seq uint64

	// Err is the underlying network or backend error.
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search #%d failed: %v", e.Seq, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// FilterError reports a malformed "dimension=value" expression.
type FilterError struct {
	Expr string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("%v: %q (want dimension=value[,value...])", ErrInvalidFilter, e.Expr)
}

func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

// panicError converts a recovered panic from the search capability into an error.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("search panicked: %v", e.value)
}
