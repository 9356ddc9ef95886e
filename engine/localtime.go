/*
localtime.go - Timezone-correct local-day arithmetic

PURPOSE:
  Converts between wall-clock shift instants and local calendar days in the
  pay guide's timezone. Every day-walking loop in the segmentation engine
  goes through NextLocalMidnight, which guarantees strict forward progress
  across DST transitions.

DST CONTRACT:
  NextLocalMidnight first computes the naive next local midnight. If a DST
  anomaly means that does not strictly exceed the input, it falls back to a
  UTC+25h estimate re-aligned to local midnight, and as a last resort adds
  exactly 24h. Day walks therefore always terminate.
*/
package engine

import "time"

// LocalMidnight returns the local midnight of the calendar day containing t.
func LocalMidnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// NextLocalMidnight returns the first local midnight strictly after t.
func NextLocalMidnight(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	naive := time.Date(lt.Year(), lt.Month(), lt.Day()+1, 0, 0, 0, 0, loc)
	if naive.After(t) {
		return naive
	}
	// DST anomaly: estimate a point well into the next day and re-align.
	est := LocalMidnight(t.Add(25*time.Hour), loc)
	if est.After(t) {
		return est
	}
	return t.Add(24 * time.Hour)
}

// LocalDayOfWeek returns the local day of week of t, 0=Sunday.
func LocalDayOfWeek(t time.Time, loc *time.Location) DayOfWeek {
	return DayOfWeek(t.In(loc).Weekday())
}

// InstantAt constructs the instant at the given time-of-day on the local
// calendar day containing day. The 24:00 sentinel yields the next local
// day's midnight.
func InstantAt(day time.Time, tod TimeOfDay, loc *time.Location) time.Time {
	ld := day.In(loc)
	if tod == EndOfDay {
		return time.Date(ld.Year(), ld.Month(), ld.Day()+1, 0, 0, 0, 0, loc)
	}
	return time.Date(ld.Year(), ld.Month(), ld.Day(), tod.Hour(), tod.Minute(), 0, 0, loc)
}

// StartOfLocalWeek returns the local midnight beginning the week (Monday)
// containing t.
func StartOfLocalWeek(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	back := (int(lt.Weekday()) + 6) % 7 // Monday -> 0
	return time.Date(lt.Year(), lt.Month(), lt.Day()-back, 0, 0, 0, 0, loc)
}

// =============================================================================
// INTERVAL - Half-open [Start, End) instant interval
// =============================================================================

type Interval struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the interval contains no time.
func (iv Interval) Empty() bool { return !iv.End.After(iv.Start) }

// Seconds returns the interval length in whole seconds.
func (iv Interval) Seconds() int64 {
	if iv.Empty() {
		return 0
	}
	return int64(iv.End.Sub(iv.Start) / time.Second)
}

// Intersect returns the overlap of two intervals, or nil when disjoint.
func (iv Interval) Intersect(other Interval) *Interval {
	start := iv.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := iv.End
	if other.End.Before(end) {
		end = other.End
	}
	if !end.After(start) {
		return nil
	}
	return &Interval{Start: start, End: end}
}

// Subtract removes the given spans from the interval, returning the pieces
// that remain, in order.
func (iv Interval) Subtract(spans []Interval) []Interval {
	remaining := []Interval{iv}
	for _, s := range spans {
		var next []Interval
		for _, r := range remaining {
			hit := r.Intersect(s)
			if hit == nil {
				next = append(next, r)
				continue
			}
			if hit.Start.After(r.Start) {
				next = append(next, Interval{Start: r.Start, End: hit.Start})
			}
			if r.End.After(hit.End) {
				next = append(next, Interval{Start: hit.End, End: r.End})
			}
		}
		remaining = next
	}
	return remaining
}
