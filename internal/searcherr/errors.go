// Package searcherr defines the two request-level failure kinds of the
// search engine.
//
// Both kinds are deterministic: the same input always fails the same way, so
// callers never retry them. Anything else (storage failures, cancelled
// contexts) is a plain wrapped error.
package searcherr

import (
	"errors"
	"fmt"
)

// Kind categorizes a search failure.
type Kind string

const (
	// KindSearch covers malformed syntax, unknown filter/sort/special keys,
	// non-numeric values for numeric filters and around queries on a
	// non-deterministic sort.
	KindSearch Kind = "SEARCH_ERROR"

	// KindValidation covers out-of-range page or page size.
	KindValidation Kind = "VALIDATION_ERROR"
)

// Error is a malformed-request failure raised by the tokenizer, the filter
// compiler or the executor.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Searchf creates a KindSearch error.
func Searchf(format string, args ...any) *Error {
	return &Error{Kind: KindSearch, Message: fmt.Sprintf(format, args...)}
}

// Validationf creates a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// IsSearch reports whether err wraps a KindSearch error.
func IsSearch(err error) bool {
	return hasKind(err, KindSearch)
}

// IsValidation reports whether err wraps a KindValidation error.
func IsValidation(err error) bool {
	return hasKind(err, KindValidation)
}

// IsRequestError reports whether err is either kind, i.e. the request itself
// is at fault.
func IsRequestError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
