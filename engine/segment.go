/*
segment.go - The rule segmentation engine

PURPOSE:
  Splits a shift's wall-clock span into correctly-priced, non-overlapping
  time segments. The span is walked one local calendar day at a time in the
  pay guide's timezone; each day's portion is matched against candidate rule
  windows in strict precedence order.

PRECEDENCE (exactly one rule wins per instant):
  1. Public holiday frame
  2. Day-specific weekend rate
  3. Evening/night penalty window
  4. Ordinary rate (base x (1 + casual loading))

PIPELINE:
  segmentSpan   walk days, claim candidate windows by precedence
  subtractBreaks remove unpaid break overlap, splitting segments as needed
  applyOvertime  reclassify threshold-excess hours (overtime.go)
  price          convert seconds to hours and round pay once per segment

ROUNDING POLICY:
  All interval arithmetic is whole seconds. Pay is rounded to cents (half
  away from zero) exactly once, at the final pricing step. Totals are sums
  of rounded segment pays, so sum(segment.pay) == totalPay by construction.
*/
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CalculationInput is everything needed to price one shift. PriorWeekHours
// is the sum of already-processed shift hours earlier in the same local
// week (scoped to the pay period); it only matters when the guide has a
// weekly overtime threshold.
type CalculationInput struct {
	Guide          *PayGuide
	Start          time.Time
	End            time.Time
	Breaks         []BreakPeriod
	PriorWeekHours decimal.Decimal
}

// Calculate prices a shift span against its pay guide. It is deterministic
// and pure: identical inputs produce identical results.
func Calculate(in CalculationInput) (*Result, error) {
	g := in.Guide
	if g == nil {
		return nil, &CannotCalculateError{Reason: "no pay guide"}
	}
	if !g.Active {
		return nil, &CannotCalculateError{GuideID: g.ID, Reason: "guide is inactive"}
	}
	if !in.End.After(in.Start) {
		return nil, ErrInvalidSpan
	}
	loc, err := g.Location()
	if err != nil {
		return nil, &CannotCalculateError{GuideID: g.ID, Reason: fmt.Sprintf("bad timezone %q", g.Timezone)}
	}

	spans := segmentSpan(g, loc, Interval{Start: in.Start, End: in.End})
	spans = subtractBreaks(spans, in.Breaks)
	spans = applyOvertime(g, loc, spans, in.PriorWeekHours)
	return price(g, spans), nil
}

// pricedSpan is an unrounded, unpriced slice of the shift during the
// pipeline. Seconds are derived from the interval; every span is fully paid
// time (breaks have been cut out before overtime runs).
type pricedSpan struct {
	iv         Interval
	kind       SegmentKind
	frameID    string
	label      string
	multiplier decimal.Decimal
}

// =============================================================================
// DAY WALK
// =============================================================================

func segmentSpan(g *PayGuide, loc *time.Location, shift Interval) []pricedSpan {
	var out []pricedSpan

	day := LocalMidnight(shift.Start, loc)
	for day.Before(shift.End) {
		next := NextLocalMidnight(day, loc)
		if part := (Interval{Start: day, End: next}).Intersect(shift); part != nil {
			out = append(out, segmentDay(g, loc, day, next, *part)...)
		}
		day = next
	}

	sort.Slice(out, func(i, j int) bool { return out[i].iv.Start.Before(out[j].iv.Start) })
	return out
}

// segmentDay matches one local day's portion of the shift against the
// guide's rules. Claims happen tier by tier against the still-uncovered
// intervals, so an instant claimed by a higher tier is never re-priced.
func segmentDay(g *PayGuide, loc *time.Location, dayStart, dayEnd time.Time, part Interval) []pricedSpan {
	uncovered := []Interval{part}
	var claimed []pricedSpan

	claim := func(w Interval, f *PenaltyTimeFrame) {
		var rest []Interval
		for _, u := range uncovered {
			hit := u.Intersect(w)
			if hit == nil {
				rest = append(rest, u)
				continue
			}
			claimed = append(claimed, pricedSpan{
				iv:         *hit,
				kind:       KindPenalty,
				frameID:    f.ID,
				label:      f.Name,
				multiplier: f.Multiplier,
			})
			rest = append(rest, u.Subtract([]Interval{*hit})...)
		}
		uncovered = rest
	}

	dow := LocalDayOfWeek(dayStart, loc)

	// Tier 1: public holiday supersedes everything for the local date.
	if g.HolidayOn(dayStart, loc) != nil {
		for i := range g.PenaltyFrames {
			f := &g.PenaltyFrames[i]
			if f.Active && f.PublicHoliday {
				for _, w := range frameWindows(g, f, dow, dayStart, dayEnd, loc) {
					claim(w, f)
				}
			}
		}
	}

	// Tier 2: day-specific weekend rates.
	if dow.IsWeekend() {
		for i := range g.PenaltyFrames {
			f := &g.PenaltyFrames[i]
			if f.AppliesTo(dow) && f.Day != nil {
				for _, w := range frameWindows(g, f, dow, dayStart, dayEnd, loc) {
					claim(w, f)
				}
			}
		}
	}

	// Tier 3: evening/night penalty windows.
	for i := range g.PenaltyFrames {
		f := &g.PenaltyFrames[i]
		if !f.AppliesTo(dow) {
			continue
		}
		if dow.IsWeekend() && f.Day != nil {
			continue // already claimed at tier 2
		}
		for _, w := range frameWindows(g, f, dow, dayStart, dayEnd, loc) {
			claim(w, f)
		}
	}

	// Tier 4: whatever remains is ordinary time.
	for _, u := range uncovered {
		claimed = append(claimed, pricedSpan{
			iv:         u,
			kind:       KindOrdinary,
			label:      "Ordinary",
			multiplier: g.OrdinaryMultiplier(),
		})
	}

	return claimed
}

// frameWindows resolves a penalty frame's concrete instant windows for one
// local day. Wrapping windows contribute both sides of the day, which makes
// a 22:00-06:00 night rule behave as a per-day recurring pattern.
func frameWindows(g *PayGuide, f *PenaltyTimeFrame, dow DayOfWeek, dayStart, dayEnd time.Time, loc *time.Location) []Interval {
	if f.Window != nil {
		w := *f.Window
		if WrapsMidnight(w.Start, w.End) {
			return []Interval{
				{Start: dayStart, End: InstantAt(dayStart, w.End, loc)},
				{Start: InstantAt(dayStart, w.Start, loc), End: dayEnd},
			}
		}
		return []Interval{{Start: InstantAt(dayStart, w.Start, loc), End: InstantAt(dayStart, w.End, loc)}}
	}

	// No explicit window: holiday and weekend-day frames cover the whole
	// day; weekday frames cover the complement of the ordinary span.
	if f.PublicHoliday || (f.Day != nil && f.Day.IsWeekend()) {
		return []Interval{{Start: dayStart, End: dayEnd}}
	}
	span, ok := g.OrdinarySpans[dow]
	if !ok {
		return []Interval{{Start: dayStart, End: dayEnd}}
	}
	var out []Interval
	if span.Start > 0 {
		out = append(out, Interval{Start: dayStart, End: InstantAt(dayStart, span.Start, loc)})
	}
	if span.End < EndOfDay {
		out = append(out, Interval{Start: InstantAt(dayStart, span.End, loc), End: dayEnd})
	}
	return out
}

// =============================================================================
// BREAKS
// =============================================================================

// subtractBreaks cuts unpaid break overlap out of every span. Afterwards
// each span's interval is fully paid time, which lets overtime carving
// split by wall-clock offsets exactly.
func subtractBreaks(spans []pricedSpan, breaks []BreakPeriod) []pricedSpan {
	if len(breaks) == 0 {
		return spans
	}
	ivs := make([]Interval, 0, len(breaks))
	for _, b := range breaks {
		ivs = append(ivs, Interval{Start: b.Start, End: b.End})
	}

	var out []pricedSpan
	for _, s := range spans {
		for _, piece := range s.iv.Subtract(ivs) {
			c := s
			c.iv = piece
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// PRICING - The single rounding step
// =============================================================================

func price(g *PayGuide, spans []pricedSpan) *Result {
	res := &Result{}
	base, penalty, overtime := decimal.Zero, decimal.Zero, decimal.Zero
	totalHours := decimal.Zero

	for _, s := range spans {
		secs := s.iv.Seconds()
		if secs == 0 {
			continue
		}
		hours := hoursFromSeconds(secs)
		pay := roundPay(g.BaseRate.Mul(s.multiplier).Mul(decimal.NewFromInt(secs)).Div(secondsPerHour))

		res.Segments = append(res.Segments, Segment{
			Kind:       s.kind,
			FrameID:    s.frameID,
			Label:      s.label,
			Multiplier: s.multiplier,
			Start:      s.iv.Start,
			End:        s.iv.End,
			Seconds:    secs,
			Hours:      hours,
			Pay:        pay,
		})

		switch s.kind {
		case KindOrdinary:
			base = base.Add(pay)
		case KindPenalty:
			penalty = penalty.Add(pay)
		case KindOvertime:
			overtime = overtime.Add(pay)
		}
		totalHours = totalHours.Add(hours)
	}

	res.Totals = ShiftTotals{
		BasePay:     base,
		PenaltyPay:  penalty,
		OvertimePay: overtime,
		TotalPay:    base.Add(penalty).Add(overtime),
		TotalHours:  totalHours,
	}
	res.Breakdown = buildBreakdown(res.Segments, res.Totals)
	return res
}

// buildBreakdown groups segments by kind+label+multiplier, preserving
// first-seen order.
func buildBreakdown(segments []Segment, totals ShiftTotals) Breakdown {
	type lineKey struct {
		kind  SegmentKind
		label string
		mult  string
	}
	index := make(map[lineKey]int)
	var lines []BreakdownLine

	for _, s := range segments {
		k := lineKey{kind: s.Kind, label: s.Label, mult: s.Multiplier.String()}
		i, ok := index[k]
		if !ok {
			i = len(lines)
			index[k] = i
			lines = append(lines, BreakdownLine{Kind: s.Kind, Label: s.Label, Multiplier: s.Multiplier})
		}
		lines[i].Hours = lines[i].Hours.Add(s.Hours)
		lines[i].Pay = lines[i].Pay.Add(s.Pay)
	}

	return Breakdown{Lines: lines, TotalHours: totals.TotalHours, TotalPay: totals.TotalPay}
}
