/*
Package engine implements the shift pay calculation core.

PURPOSE:
  This package contains the domain types and algorithms for pricing worked
  shifts under an Australian casual/award pay guide: splitting a shift span
  into non-overlapping priced time segments, reclassifying hours beyond
  daily/weekly thresholds into tiered overtime, and producing the aggregate
  figures a pay period consumes.

KEY CONCEPTS IN THIS FILE (types.go):
  - PayGuide: The rate-and-rules configuration a shift is evaluated against
  - PenaltyTimeFrame / OvertimeTimeFrame: Multiplier rules keyed on day/time
  - Shift / BreakPeriod: The wall-clock span being priced
  - Segment: A computed, priced slice of the shift
  - CombinationPolicy: Closed choice for penalty+overtime coincidence

DESIGN PRINCIPLES:
  1. Precision: All money uses decimal.Decimal; never binary floating point
  2. Seconds first: Interval arithmetic is done in whole seconds, hours are
     derived; pay is rounded to cents once per segment, never mid-calculation
  3. Derived aggregates: A Shift's pay fields are outputs of Calculate,
     never hand-edited
  4. One winner per instant: Precedence decides which rule prices an instant,
     segments never overlap

SEE ALSO:
  - timeofday.go: The shared HH:MM value type and its single parser
  - localtime.go: Timezone/DST-correct day walking
  - segment.go:   The rule segmentation algorithm
  - overtime.go:  Daily/weekly threshold reclassification
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type GuideID string
type ShiftID string

// =============================================================================
// DAY OF WEEK - ISO-style, 0=Sunday (matches stored rule rows)
// =============================================================================

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

func (d DayOfWeek) IsWeekend() bool { return d == Saturday || d == Sunday }

func (d DayOfWeek) String() string {
	names := [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if d < 0 || int(d) >= len(names) {
		return "invalid"
	}
	return names[d]
}

// =============================================================================
// PAY GUIDE - The named rate-and-rules configuration
// =============================================================================

// PayGuide is the complete ruleset a shift is priced against.
// A guide is treated as immutable for the duration of a calculation;
// edits apply prospectively.
type PayGuide struct {
	ID   GuideID
	Name string

	// BaseRate is the hourly base rate before loading.
	BaseRate decimal.Decimal

	// CasualLoading is the fractional uplift applied to ordinary hours
	// (0.25 = 25%). Penalty and overtime multipliers apply to BaseRate
	// directly and are inclusive of loading.
	CasualLoading decimal.Decimal

	// Timezone is the IANA zone all local-day rules are evaluated in.
	Timezone string

	// OrdinarySpans maps each weekday to its ordinary-hours window.
	// A weekday with no entry has no ordinary span; weekday penalty frames
	// without an explicit window then cover the whole day.
	OrdinarySpans map[DayOfWeek]OrdinarySpan

	// Overtime thresholds. A trigger flag gates its threshold entirely.
	DailyOvertime       bool
	DailyOvertimeAfter  decimal.Decimal // hours
	WeeklyOvertime      bool
	WeeklyOvertimeAfter decimal.Decimal // hours

	// Combination decides what happens when overtime lands on an
	// instant already covered by a penalty window.
	Combination CombinationPolicy

	PenaltyFrames  []PenaltyTimeFrame
	OvertimeFrames []OvertimeTimeFrame
	Holidays       []PublicHoliday

	Active bool
}

// OrdinarySpan is the configured normal working window for one weekday.
type OrdinarySpan struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Location resolves the guide's timezone.
func (g *PayGuide) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(g.Timezone)
}

// OrdinaryRate is the loaded hourly rate for ordinary hours.
func (g *PayGuide) OrdinaryRate() decimal.Decimal {
	return g.BaseRate.Mul(decimal.NewFromInt(1).Add(g.CasualLoading))
}

// OrdinaryMultiplier is the multiplier ordinary segments carry (1 + loading).
func (g *PayGuide) OrdinaryMultiplier() decimal.Decimal {
	return decimal.NewFromInt(1).Add(g.CasualLoading)
}

// HolidayOn returns the public holiday matching the local calendar date of
// the given instant, or nil.
func (g *PayGuide) HolidayOn(t time.Time, loc *time.Location) *PublicHoliday {
	lt := t.In(loc)
	for i := range g.Holidays {
		h := &g.Holidays[i]
		if h.Date.Year() == lt.Year() && h.Date.Month() == lt.Month() && h.Date.Day() == lt.Day() {
			return h
		}
	}
	return nil
}

// =============================================================================
// PENALTY / OVERTIME TIME FRAMES
// =============================================================================

// Window is a local time-of-day window [Start, End). A window whose end does
// not strictly exceed its start wraps past midnight.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Wraps reports whether the window crosses local midnight.
func (w Window) Wraps() bool { return w.End <= w.Start }

// PenaltyTimeFrame defines a multiplier applicable to hours matching a
// day/time condition.
//
// Window resolution:
//   - explicit Window: that window each applicable day (wrapping windows
//     contribute both sides of the day)
//   - no Window, weekend or holiday frame: the whole day
//   - no Window, weekday frame: the complement of the day's ordinary span
type PenaltyTimeFrame struct {
	ID            string
	Name          string
	Multiplier    decimal.Decimal
	Day           *DayOfWeek
	Window        *Window
	PublicHoliday bool
	Active        bool
}

// AppliesTo reports whether the frame is a candidate for the given weekday.
// Holiday frames are matched separately.
func (f *PenaltyTimeFrame) AppliesTo(day DayOfWeek) bool {
	if !f.Active || f.PublicHoliday {
		return false
	}
	return f.Day == nil || *f.Day == day
}

// OvertimeTimeFrame governs the multiplier applied to hours already
// identified as overtime by the threshold tracker. The first configured
// block of overtime hours earns FirstMultiplier, hours beyond it earn
// SecondMultiplier. FirstBlockHours <= 0 means the first tier is unbounded.
type OvertimeTimeFrame struct {
	ID               string
	Name             string
	FirstMultiplier  decimal.Decimal
	SecondMultiplier decimal.Decimal
	FirstBlockHours  decimal.Decimal
	Day              *DayOfWeek
	Window           *Window
	PublicHoliday    bool
}

// PublicHoliday is a calendar date scoped to a pay guide. Only the
// year/month/day components of Date are meaningful.
type PublicHoliday struct {
	Name string
	Date time.Time
}

// =============================================================================
// COMBINATION POLICY - Closed tagged choice, not a rule blob
// =============================================================================

type CombinationMode int

const (
	// CombineExclusive: only the larger of the penalty and overtime
	// multipliers applies.
	CombineExclusive CombinationMode = iota

	// CombineAdditive: the overtime multiplier and the penalty uplift
	// stack (overtime + penalty - 1).
	CombineAdditive
)

type CombinationPolicy struct {
	Mode CombinationMode
}

// Apply resolves the effective multiplier for an overtime instant that was
// covered by a penalty window.
func (p CombinationPolicy) Apply(penalty, overtime decimal.Decimal) decimal.Decimal {
	switch p.Mode {
	case CombineAdditive:
		return overtime.Add(penalty).Sub(decimal.NewFromInt(1))
	default:
		if penalty.GreaterThan(overtime) {
			return penalty
		}
		return overtime
	}
}

// =============================================================================
// SHIFT - The wall-clock span being priced
// =============================================================================

// Shift is a worked span referencing one PayGuide. The aggregate pay fields
// are derived by recalculation and replaced atomically with the segments.
type Shift struct {
	ID      ShiftID
	GuideID GuideID
	Start   time.Time
	End     time.Time
	Breaks  []BreakPeriod

	// Derived aggregates (outputs of the last recalculation).
	BasePay     decimal.Decimal
	PenaltyPay  decimal.Decimal
	OvertimePay decimal.Decimal
	TotalPay    decimal.Decimal
	TotalHours  decimal.Decimal
}

// BreakPeriod is an unpaid span within the shift.
type BreakPeriod struct {
	Start time.Time
	End   time.Time
}

// =============================================================================
// SEGMENT - Computed output rows
// =============================================================================

type SegmentKind string

const (
	KindOrdinary SegmentKind = "ordinary"
	KindPenalty  SegmentKind = "penalty"
	KindOvertime SegmentKind = "overtime"
)

// Segment is one priced, break-adjusted slice of a shift. Segments are fully
// owned by their shift and replaced atomically on every recalculation.
type Segment struct {
	Kind       SegmentKind
	FrameID    string
	Label      string
	Multiplier decimal.Decimal
	Start      time.Time
	End        time.Time
	Seconds    int64
	Hours      decimal.Decimal
	Pay        decimal.Decimal
}

// =============================================================================
// RESULT - Everything a recalculation produces
// =============================================================================

// ShiftTotals are the derived aggregate fields written back onto a shift.
type ShiftTotals struct {
	BasePay     decimal.Decimal
	PenaltyPay  decimal.Decimal
	OvertimePay decimal.Decimal
	TotalPay    decimal.Decimal
	TotalHours  decimal.Decimal
}

// Result is the output of a shift calculation.
type Result struct {
	Segments  []Segment
	Totals    ShiftTotals
	Breakdown Breakdown
}

// Breakdown is the structured per-component view used by preview and
// report consumers.
type Breakdown struct {
	Lines      []BreakdownLine
	TotalHours decimal.Decimal
	TotalPay   decimal.Decimal
}

// BreakdownLine aggregates all segments sharing a label and multiplier.
type BreakdownLine struct {
	Kind       SegmentKind
	Label      string
	Multiplier decimal.Decimal
	Hours      decimal.Decimal
	Pay        decimal.Decimal
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	secondsPerHour = decimal.NewFromInt(3600)
)

// hoursFromSeconds converts whole seconds to decimal hours.
func hoursFromSeconds(secs int64) decimal.Decimal {
	return decimal.NewFromInt(secs).Div(secondsPerHour)
}

// secondsFromHours converts decimal hours to whole seconds, truncating any
// sub-second remainder.
func secondsFromHours(h decimal.Decimal) int64 {
	return h.Mul(secondsPerHour).IntPart()
}

// roundPay applies the single rounding step: cents, half away from zero.
func roundPay(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
