/*
recalc_test.go - Recalculation service against the in-memory store

Covers the load-calculate-replace pipeline, the weekly prior-hours
lookback with its period clipping, and the not-found error surface.
*/
package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/engine/store"
)

func newFixture(t *testing.T) (*store.Memory, *engine.Recalculator, *time.Location) {
	t.Helper()
	mem := store.NewMemory()
	return mem, engine.NewRecalculator(mem, mem), sydney(t)
}

func TestRecalculator_PersistsSegmentsAndTotals(t *testing.T) {
	ctx := context.Background()
	mem, recalc, loc := newFixture(t)

	g := retailGuide()
	g.DailyOvertime = true
	g.DailyOvertimeAfter = d("4")
	mem.PutGuide(g)
	mem.PutShift(&engine.Shift{
		ID:      "s1",
		GuideID: g.ID,
		Start:   time.Date(2025, 6, 16, 17, 0, 0, 0, loc),
		End:     time.Date(2025, 6, 16, 22, 0, 0, 0, loc),
	})

	res, err := recalc.RecalculateShift(ctx, "s1", time.Time{})
	if err != nil {
		t.Fatalf("RecalculateShift: %v", err)
	}
	if !res.Totals.TotalPay.Equal(d("199.13")) {
		t.Errorf("result total %s, want 199.13", res.Totals.TotalPay)
	}

	// The aggregates and segments are persisted.
	saved, err := mem.GetShift(ctx, "s1")
	if err != nil {
		t.Fatalf("GetShift: %v", err)
	}
	if !saved.TotalPay.Equal(d("199.13")) || !saved.TotalHours.Equal(d("5")) {
		t.Errorf("persisted totals pay=%s hours=%s, want 199.13 / 5", saved.TotalPay, saved.TotalHours)
	}
	if got := mem.Segments("s1"); len(got) != 3 {
		t.Errorf("persisted %d segments, want 3", len(got))
	}
}

func TestRecalculator_PreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	mem, recalc, loc := newFixture(t)

	g := retailGuide()
	mem.PutGuide(g)
	mem.PutShift(&engine.Shift{
		ID:      "s1",
		GuideID: g.ID,
		Start:   time.Date(2025, 6, 21, 10, 0, 0, 0, loc),
		End:     time.Date(2025, 6, 21, 18, 0, 0, 0, loc),
	})

	res, err := recalc.Preview(ctx, "s1", time.Time{})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !res.Totals.TotalPay.Equal(d("318.6")) {
		t.Errorf("preview total %s, want 318.60", res.Totals.TotalPay)
	}

	saved, _ := mem.GetShift(ctx, "s1")
	if !saved.TotalPay.IsZero() {
		t.Errorf("preview persisted pay %s, want untouched zero", saved.TotalPay)
	}
	if got := mem.Segments("s1"); len(got) != 0 {
		t.Errorf("preview persisted %d segments, want 0", len(got))
	}
}

func TestRecalculator_WeeklyPriorHoursFromStore(t *testing.T) {
	// GIVEN: A 35-hour shift already persisted on Monday, weekly overtime
	//        after 38 hours
	// WHEN:  Recalculating an 8-hour Thursday shift
	// THEN:  5 hours reclassify as overtime; clipping the lookback to a
	//        period starting Wednesday removes the prior hours and the
	//        overtime with them

	ctx := context.Background()
	mem, recalc, loc := newFixture(t)

	g := retailGuide()
	g.WeeklyOvertime = true
	g.WeeklyOvertimeAfter = d("38")
	mem.PutGuide(g)

	mem.PutShift(&engine.Shift{
		ID:         "mon",
		GuideID:    g.ID,
		Start:      time.Date(2025, 6, 16, 6, 0, 0, 0, loc),
		End:        time.Date(2025, 6, 16, 23, 0, 0, 0, loc),
		TotalHours: d("35"),
	})
	mem.PutShift(&engine.Shift{
		ID:      "thu",
		GuideID: g.ID,
		Start:   time.Date(2025, 6, 19, 9, 0, 0, 0, loc),
		End:     time.Date(2025, 6, 19, 17, 0, 0, 0, loc),
	})

	res, err := recalc.RecalculateShift(ctx, "thu", time.Time{})
	if err != nil {
		t.Fatalf("RecalculateShift: %v", err)
	}
	if got := overtimeHours(res); !got.Equal(d("5")) {
		t.Errorf("overtime hours %s, want 5 from weekly threshold", got)
	}

	// Clipped to a pay period starting Wednesday the Monday hours are out
	// of scope.
	periodStart := time.Date(2025, 6, 18, 0, 0, 0, 0, loc)
	res, err = recalc.RecalculateShift(ctx, "thu", periodStart)
	if err != nil {
		t.Fatalf("RecalculateShift clipped: %v", err)
	}
	if got := overtimeHours(res); !got.IsZero() {
		t.Errorf("overtime hours %s with clipped lookback, want 0", got)
	}
}

func TestRecalculator_RepeatRunsAreIdentical(t *testing.T) {
	// GIVEN: An unchanged shift with breaks, daily overtime and a penalty
	//        window in play
	// WHEN:  Recalculating it twice
	// THEN:  Both runs produce the same segments and totals, and the
	//        persisted aggregates do not drift

	ctx := context.Background()
	mem, recalc, loc := newFixture(t)

	g := retailGuide()
	g.DailyOvertime = true
	g.DailyOvertimeAfter = d("4")
	mem.PutGuide(g)
	mem.PutShift(&engine.Shift{
		ID:      "s1",
		GuideID: g.ID,
		Start:   time.Date(2025, 6, 16, 17, 0, 0, 0, loc),
		End:     time.Date(2025, 6, 16, 22, 0, 0, 0, loc),
		Breaks: []engine.BreakPeriod{
			{
				Start: time.Date(2025, 6, 16, 19, 0, 0, 0, loc),
				End:   time.Date(2025, 6, 16, 19, 30, 0, 0, loc),
			},
		},
	})

	first, err := recalc.RecalculateShift(ctx, "s1", time.Time{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := recalc.RecalculateShift(ctx, "s1", time.Time{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(first.Segments) != len(second.Segments) {
		t.Fatalf("segment counts differ: %d then %d", len(first.Segments), len(second.Segments))
	}
	for i := range first.Segments {
		a, b := first.Segments[i], second.Segments[i]
		if a.Kind != b.Kind || a.Label != b.Label || a.Seconds != b.Seconds ||
			!a.Multiplier.Equal(b.Multiplier) || !a.Pay.Equal(b.Pay) ||
			!a.Start.Equal(b.Start) || !a.End.Equal(b.End) {
			t.Errorf("segment %d differs between runs: %+v vs %+v", i, a, b)
		}
	}
	if !first.Totals.TotalPay.Equal(second.Totals.TotalPay) ||
		!first.Totals.BasePay.Equal(second.Totals.BasePay) ||
		!first.Totals.PenaltyPay.Equal(second.Totals.PenaltyPay) ||
		!first.Totals.OvertimePay.Equal(second.Totals.OvertimePay) ||
		!first.Totals.TotalHours.Equal(second.Totals.TotalHours) {
		t.Errorf("totals differ between runs: %+v vs %+v", first.Totals, second.Totals)
	}

	saved, err := mem.GetShift(ctx, "s1")
	if err != nil {
		t.Fatalf("GetShift: %v", err)
	}
	if !saved.TotalPay.Equal(first.Totals.TotalPay) {
		t.Errorf("persisted pay %s drifted from %s", saved.TotalPay, first.Totals.TotalPay)
	}
}

func TestRecalculator_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	mem, recalc, loc := newFixture(t)

	t.Run("missing shift", func(t *testing.T) {
		_, err := recalc.RecalculateShift(ctx, "ghost", time.Time{})
		if !errors.Is(err, engine.ErrShiftNotFound) {
			t.Errorf("got %v, want ErrShiftNotFound", err)
		}
	})

	t.Run("missing guide becomes cannot-calculate", func(t *testing.T) {
		mem.PutShift(&engine.Shift{
			ID:      "orphan",
			GuideID: "no-such-guide",
			Start:   time.Date(2025, 6, 16, 9, 0, 0, 0, loc),
			End:     time.Date(2025, 6, 16, 17, 0, 0, 0, loc),
		})
		_, err := recalc.RecalculateShift(ctx, "orphan", time.Time{})
		if !errors.Is(err, engine.ErrCannotCalculate) {
			t.Errorf("got %v, want ErrCannotCalculate", err)
		}
	})
}
