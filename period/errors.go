/*
errors.go - Period error types

The locked-period error is deliberately its own type: callers use it to
drive a specific "reopen first" flow, distinct from generic failures.
*/
package period

import (
	"errors"
	"fmt"
)

var (
	// ErrPeriodNotFound is returned when a referenced period doesn't exist.
	ErrPeriodNotFound = errors.New("pay period not found")

	// ErrPeriodLocked is the sentinel wrapped by LockedPeriodError.
	ErrPeriodLocked = errors.New("pay period is locked")
)

// LockedPeriodError rejects mutation of a verified period.
type LockedPeriodError struct {
	PeriodID ID
}

func (e *LockedPeriodError) Error() string {
	return fmt.Sprintf("pay period %s is verified and locked; reopen it first", e.PeriodID)
}

func (e *LockedPeriodError) Unwrap() error { return ErrPeriodLocked }

// IsLocked reports whether err is the locked-period rejection.
func IsLocked(err error) bool { return errors.Is(err, ErrPeriodLocked) }
