/*
errors.go - Centralized error types for withholding

FAILURE PHILOSOPHY:
  Two deliberately different behaviors:
  - The source not having a tax year is an UnknownYearError: a hard
    failure, never silently substituted with another year's rules.
  - The source failing to load at all (store unreachable) degrades to the
    hardcoded fallback tables; the served TableSet carries
    Source == SourceFallback so callers can see it happened.
*/
package tax

import (
	"errors"
	"fmt"
)

var (
	// ErrYearNotFound is returned by a TableSource when it is reachable
	// but holds no rows for the requested year.
	ErrYearNotFound = errors.New("tax year not found")

	// ErrUnknownTaxYear is the sentinel wrapped by UnknownYearError.
	ErrUnknownTaxYear = errors.New("unknown tax year")

	// ErrNoScale is returned when a year's tables carry no brackets for
	// the requested withholding scale.
	ErrNoScale = errors.New("no coefficients for scale")
)

// UnknownYearError is the hard failure for a tax year present in neither
// the live source nor the fallback tables.
type UnknownYearError struct {
	Year  Year
	cause error
}

func (e *UnknownYearError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("unknown tax year %s: %v", e.Year, e.cause)
	}
	return fmt.Sprintf("unknown tax year %s", e.Year)
}

func (e *UnknownYearError) Unwrap() error { return ErrUnknownTaxYear }

// IsUnknownYear reports whether err is the hard unknown-tax-year failure.
func IsUnknownYear(err error) bool {
	return errors.Is(err, ErrUnknownTaxYear)
}
