/*
orchestrator_test.go - Period aggregation, withholding and the verify lock

Uses the in-memory shift store and a map-backed period store; withholding
comes from the embedded 2024-25 fallback tables.
*/
package period_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/engine/store"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/tax"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// memPeriods is a map-backed period.Store that counts writes.
type memPeriods struct {
	periods map[period.ID]*period.PayPeriod
	saves   int
}

func newMemPeriods() *memPeriods {
	return &memPeriods{periods: make(map[period.ID]*period.PayPeriod)}
}

func (m *memPeriods) GetPeriod(_ context.Context, id period.ID) (*period.PayPeriod, error) {
	p, ok := m.periods[id]
	if !ok {
		return nil, period.ErrPeriodNotFound
	}
	cp := *p
	cp.Extras = append([]period.Extra(nil), p.Extras...)
	return &cp, nil
}

func (m *memPeriods) SavePeriod(_ context.Context, p *period.PayPeriod) error {
	m.saves++
	cp := *p
	m.periods[p.ID] = &cp
	return nil
}

type fixture struct {
	periods *memPeriods
	shifts  *store.Memory
	orch    *period.Orchestrator
}

// newFixture builds a weekly period over 2025-06-16..23 with two priced
// shifts totalling a 1000 gross.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		t.Fatalf("load Sydney tz: %v", err)
	}

	periods := newMemPeriods()
	periods.periods["p1"] = &period.PayPeriod{
		ID:      "p1",
		Start:   time.Date(2025, 6, 16, 0, 0, 0, 0, loc),
		End:     time.Date(2025, 6, 23, 0, 0, 0, 0, loc),
		Type:    period.TypeWeekly,
		Status:  period.StatusOpen,
		TaxYear: "2024-25",
	}

	shifts := store.NewMemory()
	shifts.PutShift(&engine.Shift{
		ID:       "mon",
		Start:    time.Date(2025, 6, 16, 9, 0, 0, 0, loc),
		End:      time.Date(2025, 6, 16, 17, 0, 0, 0, loc),
		TotalPay: d("800"),
	})
	shifts.PutShift(&engine.Shift{
		ID:       "sat",
		Start:    time.Date(2025, 6, 21, 10, 0, 0, 0, loc),
		End:      time.Date(2025, 6, 21, 14, 0, 0, 0, loc),
		TotalPay: d("200"),
	})
	// Starts exactly at the period end: belongs to the next cycle.
	shifts.PutShift(&engine.Shift{
		ID:       "next",
		Start:    time.Date(2025, 6, 23, 0, 0, 0, 0, loc),
		End:      time.Date(2025, 6, 23, 8, 0, 0, 0, loc),
		TotalPay: d("9999"),
	})

	calc := tax.NewCalculator(tax.NewCache(nil, 0))
	orch := period.NewOrchestrator(periods, shifts, calc, period.TaxProfile{
		ClaimsTaxFreeThreshold: true,
	})
	return &fixture{periods: periods, shifts: shifts, orch: orch}
}

func TestOrchestrator_RecalculatePersistsTotals(t *testing.T) {
	// GIVEN: Two shifts worth 1000 inside the period, weekly annualization
	// THEN:  Gross 1000, income tax 122.85, Medicare 20, net 857.15 and the
	//        period moves to processed

	f := newFixture(t)
	p, err := f.orch.Recalculate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if p.Status != period.StatusProcessed {
		t.Errorf("status %s, want processed", p.Status)
	}
	tt := p.Totals
	if !tt.Gross.Equal(d("1000")) {
		t.Errorf("gross %s, want 1000 (shift at period end excluded)", tt.Gross)
	}
	if !tt.IncomeTax.Equal(d("122.85")) || !tt.Medicare.Equal(d("20")) {
		t.Errorf("income=%s medicare=%s, want 122.85 / 20", tt.IncomeTax, tt.Medicare)
	}
	if !tt.Withheld.Equal(d("142.85")) || !tt.Net.Equal(d("857.15")) {
		t.Errorf("withheld=%s net=%s, want 142.85 / 857.15", tt.Withheld, tt.Net)
	}
	if tt.Source != tax.SourceFallback {
		t.Errorf("source %s, want fallback without a live table store", tt.Source)
	}

	saved, _ := f.periods.GetPeriod(context.Background(), "p1")
	if saved.Status != period.StatusProcessed || !saved.Totals.Gross.Equal(d("1000")) {
		t.Error("recalculated period was not persisted")
	}
}

func TestOrchestrator_PreviewDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	totals, err := f.orch.Preview(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if !totals.Gross.Equal(d("1000")) || !totals.Net.Equal(d("857.15")) {
		t.Errorf("preview gross=%s net=%s, want 1000 / 857.15", totals.Gross, totals.Net)
	}
	if f.periods.saves != 0 {
		t.Errorf("preview wrote %d times, want 0", f.periods.saves)
	}
	if p, _ := f.periods.GetPeriod(context.Background(), "p1"); p.Status != period.StatusOpen {
		t.Errorf("preview changed status to %s", p.Status)
	}
}

func TestOrchestrator_VerifiedPeriodLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.Verify(ctx, "p1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, err := f.orch.Recalculate(ctx, "p1"); !period.IsLocked(err) {
		t.Errorf("Recalculate on verified period: %v, want locked rejection", err)
	}
	extra := period.Extra{Name: "Bonus", Amount: d("100"), Taxable: true}
	if _, err := f.orch.AddExtra(ctx, "p1", extra); !period.IsLocked(err) {
		t.Errorf("AddExtra on verified period: %v, want locked rejection", err)
	}

	// Preview stays available on a locked period.
	if _, err := f.orch.Preview(ctx, "p1"); err != nil {
		t.Errorf("Preview on verified period: %v", err)
	}

	// Reopen unlocks recalculation again.
	if _, err := f.orch.Reopen(ctx, "p1"); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if _, err := f.orch.Recalculate(ctx, "p1"); err != nil {
		t.Errorf("Recalculate after reopen: %v", err)
	}
}

func TestOrchestrator_TaxableExtraJoinsGross(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.orch.AddExtra(ctx, "p1", period.Extra{Name: "Bonus", Amount: d("100"), Taxable: true})
	if err != nil {
		t.Fatalf("AddExtra: %v", err)
	}
	if len(p.Extras) != 1 || p.Extras[0].ID == "" {
		t.Fatalf("extra not stored with a generated id: %+v", p.Extras)
	}

	p, err = f.orch.Recalculate(ctx, "p1")
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	// Annual 57200: 0.30*57200 - 9212 = 7948 -> 152.85/wk; Medicare 22.
	if !p.Totals.Gross.Equal(d("1100")) {
		t.Errorf("gross %s, want 1100 with taxable bonus", p.Totals.Gross)
	}
	if !p.Totals.IncomeTax.Equal(d("152.85")) || !p.Totals.Medicare.Equal(d("22")) {
		t.Errorf("income=%s medicare=%s, want 152.85 / 22", p.Totals.IncomeTax, p.Totals.Medicare)
	}
	if !p.Totals.Net.Equal(d("925.15")) {
		t.Errorf("net %s, want 925.15", p.Totals.Net)
	}
}

func TestOrchestrator_NonTaxableExtraAddsToNet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.AddExtra(ctx, "p1", period.Extra{Name: "Reimbursement", Amount: d("100")}); err != nil {
		t.Fatalf("AddExtra: %v", err)
	}
	p, err := f.orch.Recalculate(ctx, "p1")
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if !p.Totals.Gross.Equal(d("1000")) {
		t.Errorf("gross %s, want 1000 untouched by reimbursement", p.Totals.Gross)
	}
	if !p.Totals.Withheld.Equal(d("142.85")) {
		t.Errorf("withheld %s, want 142.85 untouched by reimbursement", p.Totals.Withheld)
	}
	if !p.Totals.Net.Equal(d("957.15")) {
		t.Errorf("net %s, want 857.15 + 100 post-tax", p.Totals.Net)
	}
}

func TestOrchestrator_MissingPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Recalculate(context.Background(), "ghost")
	if !errors.Is(err, period.ErrPeriodNotFound) {
		t.Errorf("got %v, want ErrPeriodNotFound", err)
	}
}
