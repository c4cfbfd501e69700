package archive

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrDateParse       = errors.New("unparseable date")
	ErrInvalidDateSpec = errors.New("invalid date specification")
)

// DateParseError reports a date string that no known layout accepts.
type DateParseError struct {
	Input string
	Err   error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("parse date %q: %v", e.Input, ErrDateParse)
}

func (e *DateParseError) Is(target error) bool { return target == ErrDateParse }

func (e *DateParseError) Unwrap() error { return e.Err }

// InvalidDateSpecError reports a structurally incomplete or out-of-range date,
// such as a month without a year.
type InvalidDateSpecError struct {
	Spec   DateSpec
	Reason string
}

func (e *InvalidDateSpecError) Error() string {
	return fmt.Sprintf("invalid date spec %s: %s", e.Spec.debugString(), e.Reason)
}

func (e *InvalidDateSpecError) Is(target error) bool { return target == ErrInvalidDateSpec }

func invalidSpec(spec DateSpec, format string, args ...any) error {
	return &InvalidDateSpecError{Spec: spec, Reason: fmt.Sprintf(format, args...)}
}
