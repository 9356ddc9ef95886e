/*
timeofday.go - The shared local time-of-day value type

PURPOSE:
  One value type and ONE parser for every HH:MM string in the system.
  Pay guide spans, penalty windows and overtime windows all go through
  ParseTimeOfDay, so validation rules live in exactly one place.

SENTINEL:
  "24:00" is accepted and means the NEXT local day's 00:00. It is the
  canonical way to express a window ending at end-of-day without forcing
  callers to reason about wrap-around.
*/
package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeOfDay is minutes since local midnight, in [0, 1440].
// The value 1440 is the end-of-day sentinel ("24:00").
type TimeOfDay int

// EndOfDay is the "24:00" sentinel: midnight of the next local day.
const EndOfDay TimeOfDay = 24 * 60

// ParseTimeOfDay parses an "HH:MM" string. "24:00" is accepted as the
// end-of-day sentinel; "24:01" and beyond are not.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: bad minute", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("invalid time of day %q: only 24:00 may use hour 24", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay parses s and panics on error. For constants and tests.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Valid() bool { return t >= 0 && t <= EndOfDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// WrapsMidnight reports whether the [start, end) time-of-day pair crosses
// local midnight. An end at or before the start wraps; an end of 24:00
// does not (it is exactly end-of-day).
func WrapsMidnight(start, end TimeOfDay) bool {
	if end == EndOfDay {
		return false
	}
	return end <= start
}
