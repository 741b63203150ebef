package upgrade

import (
	"errors"
	"fmt"
)

// ErrUpgradeFailed indicates a checkpoint could not be applied. The
// document passed to Upgrade is left unmodified.
var ErrUpgradeFailed = errors.New("profile upgrade failed")

// StepError reports the checkpoint that failed.
type StepError struct {
	Version string
	Err     error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("%s at version %s: %v", ErrUpgradeFailed, e.Version, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// Is reports ErrUpgradeFailed for every StepError.
func (e *StepError) Is(target error) bool { return target == ErrUpgradeFailed }
