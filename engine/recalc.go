/*
recalc.go - Shift recalculation service

PURPOSE:
  Glues the pure calculator to the persistence layer: loads the shift and
  its guide, gathers prior same-week hours for the weekly overtime
  threshold, runs Calculate, and persists the result through the atomic
  ReplaceSegments operation.

CONCURRENCY:
  A shift deleted between load and write surfaces as ParentGone from the
  store and is swallowed here: recalculating a vanished shift is a benign
  no-op, not an error.
*/
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Recalculator recomputes and persists a shift's segments and aggregates.
type Recalculator struct {
	Shifts ShiftStore
	Guides GuideStore
}

func NewRecalculator(shifts ShiftStore, guides GuideStore) *Recalculator {
	return &Recalculator{Shifts: shifts, Guides: guides}
}

// RecalculateShift recomputes the shift and atomically replaces its
// persisted segments and aggregate fields. periodStart bounds the weekly
// overtime lookback to the owning pay period; pass the zero time when the
// shift is not being evaluated inside a period.
func (r *Recalculator) RecalculateShift(ctx context.Context, id ShiftID, periodStart time.Time) (*Result, error) {
	shift, err := r.Shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}

	guide, err := r.Guides.GetGuide(ctx, shift.GuideID)
	if err != nil {
		if errors.Is(err, ErrGuideNotFound) {
			return nil, &CannotCalculateError{GuideID: shift.GuideID, Reason: "guide not found"}
		}
		return nil, err
	}

	prior, err := r.priorWeekHours(ctx, shift, guide, periodStart)
	if err != nil {
		return nil, err
	}

	result, err := Calculate(CalculationInput{
		Guide:          guide,
		Start:          shift.Start,
		End:            shift.End,
		Breaks:         shift.Breaks,
		PriorWeekHours: prior,
	})
	if err != nil {
		return nil, err
	}

	// A ParentGone outcome (concurrent deletion) is benign: nothing was
	// persisted and the computed result is still valid for the caller.
	if _, err := r.Shifts.ReplaceSegments(ctx, id, result.Segments, result.Totals); err != nil {
		return nil, err
	}
	return result, nil
}

// Preview runs the identical computation without touching the store.
func (r *Recalculator) Preview(ctx context.Context, id ShiftID, periodStart time.Time) (*Result, error) {
	shift, err := r.Shifts.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	guide, err := r.Guides.GetGuide(ctx, shift.GuideID)
	if err != nil {
		if errors.Is(err, ErrGuideNotFound) {
			return nil, &CannotCalculateError{GuideID: shift.GuideID, Reason: "guide not found"}
		}
		return nil, err
	}
	prior, err := r.priorWeekHours(ctx, shift, guide, periodStart)
	if err != nil {
		return nil, err
	}
	return Calculate(CalculationInput{
		Guide:          guide,
		Start:          shift.Start,
		End:            shift.End,
		Breaks:         shift.Breaks,
		PriorWeekHours: prior,
	})
}

// priorWeekHours sums the persisted hours of shifts that start earlier in
// the same local week, clipped to the pay period when one is given. The
// weekly threshold only needs this when enabled.
func (r *Recalculator) priorWeekHours(ctx context.Context, shift *Shift, guide *PayGuide, periodStart time.Time) (decimal.Decimal, error) {
	if !guide.WeeklyOvertime || !guide.WeeklyOvertimeAfter.IsPositive() {
		return decimal.Zero, nil
	}
	loc, err := guide.Location()
	if err != nil {
		return decimal.Zero, err
	}

	from := StartOfLocalWeek(shift.Start, loc)
	if !periodStart.IsZero() && periodStart.After(from) {
		from = periodStart
	}

	others, err := r.Shifts.ShiftsInRange(ctx, from, shift.Start)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, s := range others {
		if s.ID == shift.ID {
			continue
		}
		total = total.Add(s.TotalHours)
	}
	return total, nil
}
