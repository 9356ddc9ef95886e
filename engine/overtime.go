/*
overtime.go - Overtime threshold tracker

PURPOSE:
  Reclassifies shift hours beyond the guide's daily/weekly thresholds into
  tiered overtime. Runs after segmentation and break subtraction, so every
  input span is fully paid time and excess can be carved off the
  chronological end of the shift by exact wall-clock offsets.

TIERING:
  Overtime hours earn the matching frame's first-tier multiplier for the
  first configured block, then the second-tier multiplier. The block is
  consumed in chronological overtime order.

WEEKLY THRESHOLD:
  The one place correctness depends on state outside the shift: the caller
  supplies PriorWeekHours (already-processed shift hours earlier in the same
  local week, scoped to the pay period). Excess is the larger of the daily
  and weekly excess, never double-counted.
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

func applyOvertime(g *PayGuide, loc *time.Location, spans []pricedSpan, priorWeek decimal.Decimal) []pricedSpan {
	if len(spans) == 0 {
		return spans
	}

	var totalSecs int64
	for _, s := range spans {
		totalSecs += s.iv.Seconds()
	}
	totalHours := hoursFromSeconds(totalSecs)

	excess := decimal.Zero
	if g.DailyOvertime && g.DailyOvertimeAfter.IsPositive() {
		if d := totalHours.Sub(g.DailyOvertimeAfter); d.GreaterThan(excess) {
			excess = d
		}
	}
	if g.WeeklyOvertime && g.WeeklyOvertimeAfter.IsPositive() {
		w := priorWeek.Add(totalHours).Sub(g.WeeklyOvertimeAfter)
		if w.GreaterThan(totalHours) {
			w = totalHours
		}
		if w.GreaterThan(excess) {
			excess = w
		}
	}
	if !excess.IsPositive() {
		return spans
	}

	excessSecs := secondsFromHours(excess)
	if excessSecs <= 0 {
		return spans
	}
	if excessSecs > totalSecs {
		excessSecs = totalSecs
	}

	// Split the span list at the threshold boundary: the first `cut` paid
	// seconds keep their rate, the tail becomes overtime.
	cut := totalSecs - excessSecs
	var kept, tail []pricedSpan
	var acc int64
	for _, s := range spans {
		n := s.iv.Seconds()
		switch {
		case acc+n <= cut:
			kept = append(kept, s)
		case acc >= cut:
			tail = append(tail, s)
		default:
			at := s.iv.Start.Add(time.Duration(cut-acc) * time.Second)
			head, rest := s, s
			head.iv = Interval{Start: s.iv.Start, End: at}
			rest.iv = Interval{Start: at, End: s.iv.End}
			kept = append(kept, head)
			tail = append(tail, rest)
		}
		acc += n
	}

	kept = append(kept, reclassify(g, loc, tail)...)
	return kept
}

// reclassify prices the overtime tail. Each piece selects its overtime
// frame by precedence (public holiday > day-of-week > generic); pieces with
// no matching frame keep their original rate. Tier boundaries may split a
// piece in two.
func reclassify(g *PayGuide, loc *time.Location, tail []pricedSpan) []pricedSpan {
	var out []pricedSpan
	var otSecs int64

	for _, s := range tail {
		f := matchOvertimeFrame(g, loc, s.iv.Start)
		if f == nil {
			out = append(out, s)
			continue
		}

		blockSecs := int64(-1) // unbounded first tier
		if f.FirstBlockHours.IsPositive() {
			blockSecs = secondsFromHours(f.FirstBlockHours)
		}

		pieces := []pricedSpan{s}
		if blockSecs >= 0 && otSecs < blockSecs && otSecs+s.iv.Seconds() > blockSecs {
			at := s.iv.Start.Add(time.Duration(blockSecs-otSecs) * time.Second)
			first, second := s, s
			first.iv = Interval{Start: s.iv.Start, End: at}
			second.iv = Interval{Start: at, End: s.iv.End}
			pieces = []pricedSpan{first, second}
		}

		for _, p := range pieces {
			tier := f.FirstMultiplier
			if blockSecs >= 0 && otSecs >= blockSecs {
				tier = f.SecondMultiplier
			}
			mult := tier
			if p.kind == KindPenalty {
				mult = g.Combination.Apply(p.multiplier, tier)
			}
			out = append(out, pricedSpan{
				iv:         p.iv,
				kind:       KindOvertime,
				frameID:    f.ID,
				label:      f.Name,
				multiplier: mult,
			})
			otSecs += p.iv.Seconds()
		}
	}
	return out
}

// matchOvertimeFrame picks the overtime frame governing the instant.
func matchOvertimeFrame(g *PayGuide, loc *time.Location, at time.Time) *OvertimeTimeFrame {
	dow := LocalDayOfWeek(at, loc)
	holiday := g.HolidayOn(at, loc) != nil

	var dayMatch, generic *OvertimeTimeFrame
	for i := range g.OvertimeFrames {
		f := &g.OvertimeFrames[i]
		if f.Window != nil && !windowContains(*f.Window, at, loc) {
			continue
		}
		if f.PublicHoliday {
			if holiday {
				return f
			}
			continue
		}
		if f.Day != nil {
			if *f.Day == dow && dayMatch == nil {
				dayMatch = f
			}
			continue
		}
		if generic == nil {
			generic = f
		}
	}
	if dayMatch != nil {
		return dayMatch
	}
	return generic
}

// windowContains reports whether the instant's local time-of-day falls in
// the [start, end) window, honoring midnight wrap.
func windowContains(w Window, at time.Time, loc *time.Location) bool {
	lt := at.In(loc)
	tod := TimeOfDay(lt.Hour()*60 + lt.Minute())
	if WrapsMidnight(w.Start, w.End) {
		return tod >= w.Start || tod < w.End
	}
	return tod >= w.Start && tod < w.End
}
