/*
errors.go - Centralized error types for the pay engine

PURPOSE:
  All engine error types in one place. Callers match with errors.Is /
  errors.As; the structured types carry enough context for user messaging
  without the engine deciding the wording.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCannotCalculate is returned when a shift references a missing or
	// inactive pay guide. The calculation yields no partial result.
	ErrCannotCalculate = errors.New("cannot calculate")

	// ErrShiftNotFound is returned when a referenced shift doesn't exist.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrGuideNotFound is returned when a referenced pay guide doesn't exist.
	ErrGuideNotFound = errors.New("pay guide not found")

	// ErrInvalidSpan is returned when a shift's end does not follow its start.
	ErrInvalidSpan = errors.New("invalid span: end must be after start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// CannotCalculateError explains why a shift could not be priced.
type CannotCalculateError struct {
	GuideID GuideID
	Reason  string
}

func (e *CannotCalculateError) Error() string {
	return fmt.Sprintf("cannot calculate: guide %s: %s", e.GuideID, e.Reason)
}

func (e *CannotCalculateError) Unwrap() error { return ErrCannotCalculate }

// IsNotFound reports whether err indicates a missing shift or guide.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShiftNotFound) || errors.Is(err, ErrGuideNotFound)
}
