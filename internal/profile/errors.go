package profile

import (
	"errors"
	"fmt"
)

// Errors returned by profile operations.
var (
	// ErrMalformedDocument indicates a profile document could not be read.
	ErrMalformedDocument = errors.New("malformed profile document")

	// ErrNotFound indicates a referenced item does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDefaultItem indicates an attempt to remove a Default entry.
	ErrDefaultItem = errors.New("default entry cannot be removed")

	// ErrDuplicateID indicates an item ID is already in use.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrSourceLimit indicates all input source IDs are in use.
	ErrSourceLimit = errors.New("input source limit reached")

	// ErrRegionLimit indicates all screen region IDs are in use.
	ErrRegionLimit = errors.New("screen region limit reached")
)

// DocumentError describes where a profile document is malformed.
type DocumentError struct {
	// Path is the file the document was read from, if any.
	Path string
	// Element is the path of the offending element.
	Element string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	where := e.Element
	if e.Path != "" {
		where = e.Path + ": " + where
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedDocument, where, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedDocument, where)
}

// Unwrap returns the underlying error.
func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformedDocument for every DocumentError.
func (e *DocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

func malformed(element string, err error) error {
	return &DocumentError{Element: element, Err: err}
}
