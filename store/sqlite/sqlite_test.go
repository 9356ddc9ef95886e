package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/tax"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testGuide(id string) *engine.PayGuide {
	sat := engine.Saturday
	return &engine.PayGuide{
		ID:            engine.GuideID(id),
		Name:          "Retail Casual",
		BaseRate:      dec("26.55"),
		CasualLoading: dec("0.25"),
		Timezone:      "Australia/Sydney",
		OrdinarySpans: map[engine.DayOfWeek]engine.OrdinarySpan{
			engine.Monday: {Start: engine.MustTimeOfDay("09:00"), End: engine.MustTimeOfDay("18:00")},
		},
		PenaltyFrames: []engine.PenaltyTimeFrame{
			{ID: "sat", Name: "Saturday", Multiplier: dec("1.5"), Day: &sat, Active: true},
		},
		OvertimeFrames: []engine.OvertimeTimeFrame{
			{ID: "ot", Name: "Overtime", FirstMultiplier: dec("1.75"),
				SecondMultiplier: dec("2.25"), FirstBlockHours: dec("2")},
		},
		Combination: engine.CombinationPolicy{Mode: engine.CombineExclusive},
		Active:      true,
	}
}

// =============================================================================
// GUIDES
// =============================================================================

func TestGuideRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGuide(ctx, testGuide("g1")))

	got, err := s.GetGuide(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Retail Casual", got.Name)
	assert.True(t, got.BaseRate.Equal(dec("26.55")))
	assert.True(t, got.Active)
	assert.Len(t, got.PenaltyFrames, 1)
	assert.Len(t, got.OvertimeFrames, 1)
	require.Contains(t, got.OrdinarySpans, engine.Monday)
	assert.Equal(t, "09:00", got.OrdinarySpans[engine.Monday].Start.String())
}

func TestGuideUpsertAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := testGuide("g1")
	require.NoError(t, s.SaveGuide(ctx, g))

	g.Name = "Retail Casual v2"
	g.BaseRate = dec("27.10")
	require.NoError(t, s.SaveGuide(ctx, g))

	got, err := s.GetGuide(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Retail Casual v2", got.Name)
	assert.True(t, got.BaseRate.Equal(dec("27.10")))

	require.NoError(t, s.DeleteGuide(ctx, "g1"))
	_, err = s.GetGuide(ctx, "g1")
	assert.ErrorIs(t, err, engine.ErrGuideNotFound)
}

func TestListGuidesOrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := testGuide("g-a")
	a.Name = "Alpha"
	z := testGuide("g-z")
	z.Name = "Zulu"
	require.NoError(t, s.SaveGuide(ctx, z))
	require.NoError(t, s.SaveGuide(ctx, a))

	guides, err := s.ListGuides(ctx)
	require.NoError(t, err)
	require.Len(t, guides, 2)
	assert.Equal(t, "Alpha", guides[0].Name)
	assert.Equal(t, "Zulu", guides[1].Name)
}

func TestGetGuideNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetGuide(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrGuideNotFound)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShiftRoundTripWithBreaks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	sh := &engine.Shift{
		ID:      "s1",
		GuideID: "g1",
		Start:   start,
		End:     start.Add(8 * time.Hour),
		Breaks: []engine.BreakPeriod{
			{Start: start.Add(3 * time.Hour), End: start.Add(3*time.Hour + 30*time.Minute)},
		},
	}
	require.NoError(t, s.SaveShift(ctx, sh))

	got, err := s.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, engine.GuideID("g1"), got.GuideID)
	assert.True(t, got.Start.Equal(start))
	require.Len(t, got.Breaks, 1)
	assert.True(t, got.Breaks[0].End.Equal(start.Add(3*time.Hour+30*time.Minute)))
	assert.True(t, got.TotalPay.IsZero(), "aggregates start at zero")

	// Re-save with no breaks: the old rows go away.
	sh.Breaks = nil
	require.NoError(t, s.SaveShift(ctx, sh))
	got, err = s.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Breaks)
}

func TestGetShiftNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetShift(context.Background(), "nope")
	assert.ErrorIs(t, err, engine.ErrShiftNotFound)
}

func TestShiftsInRangeHalfOpenOrdered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	for i, h := range []int{30, 9, 50} { // saved out of order
		sh := &engine.Shift{
			ID:      engine.ShiftID([]string{"mid", "early", "late"}[i]),
			GuideID: "g1",
			Start:   base.Add(time.Duration(h) * time.Hour),
			End:     base.Add(time.Duration(h+8) * time.Hour),
		}
		require.NoError(t, s.SaveShift(ctx, sh))
	}

	// [base+9h, base+50h): includes early and mid, excludes the shift
	// starting exactly at the upper bound.
	got, err := s.ShiftsInRange(ctx, base.Add(9*time.Hour), base.Add(50*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, engine.ShiftID("early"), got[0].ID)
	assert.Equal(t, engine.ShiftID("mid"), got[1].ID)

	// The lower bound is inclusive.
	got, err = s.ShiftsInRange(ctx, base.Add(50*time.Hour), base.Add(100*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.ShiftID("late"), got[0].ID)
}

func TestReplaceSegments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveShift(ctx, &engine.Shift{
		ID: "s1", GuideID: "g1", Start: start, End: start.Add(8 * time.Hour),
	}))

	segments := []engine.Segment{
		{
			Kind: engine.KindOrdinary, Label: "Ordinary", Multiplier: dec("1.25"),
			Start: start, End: start.Add(6 * time.Hour),
			Seconds: 6 * 3600, Hours: dec("6"), Pay: dec("199.13"),
		},
		{
			Kind: engine.KindOvertime, FrameID: "ot", Label: "Overtime", Multiplier: dec("1.75"),
			Start: start.Add(6 * time.Hour), End: start.Add(8 * time.Hour),
			Seconds: 2 * 3600, Hours: dec("2"), Pay: dec("92.93"),
		},
	}
	totals := engine.ShiftTotals{
		BasePay:     dec("199.13"),
		OvertimePay: dec("92.93"),
		TotalPay:    dec("292.06"),
		TotalHours:  dec("8"),
	}

	outcome, err := s.ReplaceSegments(ctx, "s1", segments, totals)
	require.NoError(t, err)
	assert.Equal(t, engine.Replaced, outcome)

	got, err := s.Segments(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, engine.KindOrdinary, got[0].Kind)
	assert.Equal(t, "ot", got[1].FrameID)
	assert.True(t, got[1].Pay.Equal(dec("92.93")))
	assert.EqualValues(t, 2*3600, got[1].Seconds)
	assert.True(t, got[1].Start.Equal(start.Add(6*time.Hour)))

	sh, err := s.GetShift(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, sh.TotalPay.Equal(dec("292.06")))
	assert.True(t, sh.OvertimePay.Equal(dec("92.93")))
	assert.True(t, sh.TotalHours.Equal(dec("8")))

	// A second replacement fully swaps the rows.
	outcome, err = s.ReplaceSegments(ctx, "s1", segments[:1], engine.ShiftTotals{
		BasePay: dec("199.13"), TotalPay: dec("199.13"), TotalHours: dec("6"),
	})
	require.NoError(t, err)
	assert.Equal(t, engine.Replaced, outcome)
	got, err = s.Segments(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReplaceSegmentsParentGone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	outcome, err := s.ReplaceSegments(ctx, "ghost", []engine.Segment{
		{Kind: engine.KindOrdinary, Label: "Ordinary", Multiplier: dec("1.25"),
			Seconds: 3600, Hours: dec("1"), Pay: dec("33.19")},
	}, engine.ShiftTotals{TotalPay: dec("33.19")})

	require.NoError(t, err, "a vanished parent is an outcome, not an error")
	assert.Equal(t, engine.ParentGone, outcome)

	got, err := s.Segments(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, got, "nothing may be written for a missing shift")
}

func TestDeleteShiftRemovesChildren(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveShift(ctx, &engine.Shift{
		ID: "s1", GuideID: "g1", Start: start, End: start.Add(8 * time.Hour),
		Breaks: []engine.BreakPeriod{{Start: start, End: start.Add(30 * time.Minute)}},
	}))
	_, err := s.ReplaceSegments(ctx, "s1", []engine.Segment{
		{Kind: engine.KindOrdinary, Label: "Ordinary", Multiplier: dec("1.25"),
			Start: start, End: start.Add(8 * time.Hour),
			Seconds: 8 * 3600, Hours: dec("8"), Pay: dec("265.50")},
	}, engine.ShiftTotals{TotalPay: dec("265.50"), TotalHours: dec("8")})
	require.NoError(t, err)

	require.NoError(t, s.DeleteShift(ctx, "s1"))

	_, err = s.GetShift(ctx, "s1")
	assert.ErrorIs(t, err, engine.ErrShiftNotFound)
	segs, err := s.Segments(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, segs)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestPeriodRoundTripWithExtras(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
	p := &period.PayPeriod{
		ID:      "p1",
		Start:   start,
		End:     start.AddDate(0, 0, 7),
		Type:    period.TypeWeekly,
		Status:  period.StatusProcessed,
		TaxYear: "2024-25",
		Extras: []period.Extra{
			{ID: "e1", Name: "Bonus", Amount: dec("100"), Taxable: true},
			{ID: "e2", Name: "Reimbursement", Amount: dec("42.50")},
		},
		Totals: period.Totals{
			Gross:     dec("1100"),
			IncomeTax: dec("152.85"),
			Medicare:  dec("22"),
			Withheld:  dec("174.85"),
			Net:       dec("967.65"),
			Source:    tax.SourceLive,
		},
	}
	require.NoError(t, s.SavePeriod(ctx, p))

	got, err := s.GetPeriod(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, period.StatusProcessed, got.Status)
	assert.Equal(t, period.TypeWeekly, got.Type)
	assert.Equal(t, tax.Year("2024-25"), got.TaxYear)
	assert.True(t, got.Start.Equal(start))
	assert.True(t, got.Totals.Gross.Equal(dec("1100")))
	assert.Equal(t, tax.SourceLive, got.Totals.Source)
	require.Len(t, got.Extras, 2)
	assert.Equal(t, "Bonus", got.Extras[0].Name)
	assert.True(t, got.Extras[0].Taxable)
	assert.True(t, got.Extras[1].Amount.Equal(dec("42.50")))
	assert.False(t, got.Extras[1].Taxable)

	// Saving with one extra dropped rewrites the child rows.
	p.Extras = p.Extras[:1]
	require.NoError(t, s.SavePeriod(ctx, p))
	got, err = s.GetPeriod(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, got.Extras, 1)
}

func TestGetPeriodNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPeriod(context.Background(), "nope")
	assert.ErrorIs(t, err, period.ErrPeriodNotFound)
}

func TestListPeriodsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"old", "new"} {
		start := time.Date(2025, 6, 16+7*i, 0, 0, 0, 0, time.UTC)
		require.NoError(t, s.SavePeriod(ctx, &period.PayPeriod{
			ID: period.ID(id), Start: start, End: start.AddDate(0, 0, 7),
			Type: period.TypeWeekly, Status: period.StatusOpen, TaxYear: "2024-25",
		}))
	}

	got, err := s.ListPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, period.ID("new"), got[0].ID)
	assert.Equal(t, period.ID("old"), got[1].ID)
}

// =============================================================================
// TAX TABLES
// =============================================================================

func TestTaxTablesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := &tax.TableSet{
		Year: "2024-25",
		Coefficients: []tax.Coefficient{
			{Year: "2024-25", Scale: tax.ScaleTaxFree, From: dec("0"), To: dec("18200"), A: dec("0"), B: dec("0")},
			{Year: "2024-25", Scale: tax.ScaleTaxFree, From: dec("18200"), To: dec("45000"), A: dec("0.16"), B: dec("2912")},
			// Unbounded final bracket: To is zero.
			{Year: "2024-25", Scale: tax.ScaleTaxFree, From: dec("45000"), A: dec("0.30"), B: dec("9212")},
		},
		Stsl: []tax.StslRate{
			{Year: "2024-25", From: dec("0"), To: dec("54435"), Rate: dec("0")},
			{Year: "2024-25", From: dec("54435"), Rate: dec("0.01")},
		},
		Config: tax.RateConfig{
			Year:                  "2024-25",
			MedicareRate:          dec("0.02"),
			MedicareLowThreshold:  dec("27222"),
			MedicareHighThreshold: dec("34027.50"),
		},
	}
	require.NoError(t, s.SaveTables(ctx, ts))

	got, err := s.LoadTables(ctx, "2024-25")
	require.NoError(t, err)
	require.Len(t, got.Coefficients, 3)
	assert.True(t, got.Coefficients[1].B.Equal(dec("2912")))
	assert.True(t, got.Coefficients[2].To.IsZero(), "empty column reads back as the unbounded marker")
	require.Len(t, got.Stsl, 2)
	assert.True(t, got.Stsl[1].Rate.Equal(dec("0.01")))
	assert.True(t, got.Config.MedicareHighThreshold.Equal(dec("34027.50")))

	// The bracket lookup works against the reloaded rows.
	c := got.CoefficientFor(tax.ScaleTaxFree, dec("52000"))
	require.NotNil(t, c)
	assert.True(t, c.A.Equal(dec("0.30")))
}

func TestLoadTablesUnknownYear(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadTables(context.Background(), "1999-00")
	assert.ErrorIs(t, err, tax.ErrYearNotFound)
}

func TestSaveTablesReplacesYear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ts := &tax.TableSet{
		Year: "2024-25",
		Coefficients: []tax.Coefficient{
			{Year: "2024-25", Scale: tax.ScaleTaxFree, From: dec("0"), A: dec("0.20"), B: dec("0")},
		},
	}
	require.NoError(t, s.SaveTables(ctx, ts))

	ts.Coefficients[0].A = dec("0.21")
	require.NoError(t, s.SaveTables(ctx, ts))

	got, err := s.LoadTables(ctx, "2024-25")
	require.NoError(t, err)
	require.Len(t, got.Coefficients, 1)
	assert.True(t, got.Coefficients[0].A.Equal(dec("0.21")))
}
