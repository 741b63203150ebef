package config

import (
	"errors"
	"fmt"
)

// ErrInvalidValue indicates a setting value could not be converted.
var ErrInvalidValue = errors.New("invalid setting value")

// ParseError reports a settings file that could not be decoded. Line and
// Column are 0 when the decoder gave no position.
type ParseError struct {
	Path   string
	Format string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("settings %s (%s) line %d col %d: %v", e.Path, e.Format, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("settings %s (%s) line %d: %v", e.Path, e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("settings %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValueError is returned when an override cannot be converted to the
// type of its setting.
type ValueError struct {
	// Name is the environment variable.
	Name string
	// Value is the rejected text.
	Value string
	// Expected is the expected type name.
	Expected string
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("%s=%q: expected %s", e.Name, e.Value, e.Expected)
}

// Is implements error matching for ValueError.
func (e *ValueError) Is(target error) bool {
	return target == ErrInvalidValue
}
