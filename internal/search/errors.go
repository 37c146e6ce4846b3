// Package search provides the full-text search capability for tusk.
package search

import "fmt"

// ErrorKind tags a search error with its failure class. A single tagged
// variant replaces an error-type hierarchy.
type ErrorKind string

const (
	KindInvalidQuery    ErrorKind = "invalid_query"
	KindIndexError      ErrorKind = "index_error"
	KindMigrationFailed ErrorKind = "migration_failed"
)

// Error is a tagged search error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
