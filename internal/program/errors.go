package program

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUncapturedReference is returned for a backreference to a group
	// that has not been opened at that point of the pattern.
	ErrUncapturedReference = errors.New("reference to a group that has not been captured")
	// ErrInvalidReference is returned for a backreference to a group that
	// does not exist.
	ErrInvalidReference = errors.New("reference to a nonexistent group")
	// ErrUnsupported is returned for pattern features the engine cannot
	// express in the requested mode.
	ErrUnsupported = errors.New("unsupported pattern feature")
	// ErrUnreachable reports a broken internal invariant.
	ErrUnreachable = errors.New("internal invariant violated")
	// ErrCaptureMismatch reports capture registers that do not fit the
	// program's capture structure.
	ErrCaptureMismatch = errors.New("capture count mismatch")
	// ErrStepLimit is returned when a match exceeds its step budget.
	ErrStepLimit = errors.New("step limit exceeded")
)

// AbortError stops a match immediately. Alternatives are not tried.
type AbortError struct {
	Message string
	Err     error
}

func (e *AbortError) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("match aborted: %s: %v", e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("match aborted: %v", e.Err)
	}
	return "match aborted: " + e.Message
}

func (e *AbortError) Unwrap() error { return e.Err }

// Unreachable wraps ErrUnreachable with a description.
func Unreachable(format string, args ...any) error {
	return errors.Wrapf(ErrUnreachable, format, args...)
}
