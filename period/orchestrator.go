/*
orchestrator.go - Period tax orchestration

PURPOSE:
  Sums the period's persisted shift totals plus taxable extras, invokes the
  withholding calculator with the period type's annualization factor, and
  writes the resulting gross/PAYG/Medicare/STSL/net figures onto the
  period. Preview performs the identical computation without writing.

LOCKING:
  The lock is an application-level write guard, not a database lock: every
  mutating entry point checks Status == verified first and rejects with a
  typed LockedPeriodError so the caller can prompt a reopen.
*/
package period

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/tax"
)

// Store is the period-side persistence the orchestrator depends on.
type Store interface {
	// GetPeriod returns the period with its extras.
	// Returns ErrPeriodNotFound when absent.
	GetPeriod(ctx context.Context, id ID) (*PayPeriod, error)

	// SavePeriod persists the period's status, extras and totals.
	SavePeriod(ctx context.Context, p *PayPeriod) error
}

// Orchestrator aggregates and taxes pay periods.
type Orchestrator struct {
	Periods Store
	Shifts  engine.ShiftStore
	Tax     *tax.Calculator
	Profile TaxProfile
}

func NewOrchestrator(periods Store, shifts engine.ShiftStore, calc *tax.Calculator, profile TaxProfile) *Orchestrator {
	return &Orchestrator{Periods: periods, Shifts: shifts, Tax: calc, Profile: profile}
}

// Recalculate recomputes the period's totals and persists them, moving the
// period to processed. A verified period rejects with LockedPeriodError.
func (o *Orchestrator) Recalculate(ctx context.Context, id ID) (*PayPeriod, error) {
	p, err := o.Periods.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Locked() {
		return nil, &LockedPeriodError{PeriodID: p.ID}
	}

	totals, err := o.compute(ctx, p)
	if err != nil {
		return nil, err
	}

	p.Totals = *totals
	p.Status = StatusProcessed
	if err := o.Periods.SavePeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Preview computes the identical totals without persisting anything.
// Locked periods may be previewed; preview never mutates.
func (o *Orchestrator) Preview(ctx context.Context, id ID) (*Totals, error) {
	p, err := o.Periods.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.compute(ctx, p)
}

// AddExtra attaches a one-off amount to an open period.
func (o *Orchestrator) AddExtra(ctx context.Context, id ID, extra Extra) (*PayPeriod, error) {
	p, err := o.Periods.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Locked() {
		return nil, &LockedPeriodError{PeriodID: p.ID}
	}

	if extra.ID == "" {
		extra.ID = uuid.NewString()
	}
	p.Extras = append(p.Extras, extra)
	if err := o.Periods.SavePeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Verify locks the period against further mutation.
func (o *Orchestrator) Verify(ctx context.Context, id ID) (*PayPeriod, error) {
	p, err := o.Periods.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = StatusVerified
	if err := o.Periods.SavePeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Reopen unlocks a verified period so it can be recalculated again.
func (o *Orchestrator) Reopen(ctx context.Context, id ID) (*PayPeriod, error) {
	p, err := o.Periods.GetPeriod(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Status = StatusOpen
	if err := o.Periods.SavePeriod(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// compute is the shared aggregation + withholding path used by both
// Recalculate and Preview.
func (o *Orchestrator) compute(ctx context.Context, p *PayPeriod) (*Totals, error) {
	shifts, err := o.Shifts.ShiftsInRange(ctx, p.Start, p.End)
	if err != nil {
		return nil, err
	}

	gross := decimal.Zero
	for _, s := range shifts {
		gross = gross.Add(s.TotalPay)
	}

	postTax := decimal.Zero
	for _, e := range p.Extras {
		if e.Taxable {
			gross = gross.Add(e.Amount)
		} else {
			postTax = postTax.Add(e.Amount)
		}
	}

	w, err := o.Tax.Withhold(ctx, tax.Input{
		Gross:                  gross,
		PeriodsPerYear:         p.Type.PeriodsPerYear(),
		Year:                   p.TaxYear,
		ClaimsTaxFreeThreshold: o.Profile.ClaimsTaxFreeThreshold,
		ForeignResident:        o.Profile.ForeignResident,
		MedicareExemption:      o.Profile.MedicareExemption,
		HasStudyLoan:           o.Profile.HasStudyLoan,
		ExtraWithholding:       o.Profile.ExtraWithholding,
	})
	if err != nil {
		return nil, err
	}

	return &Totals{
		Gross:     w.Gross,
		IncomeTax: w.IncomeTax,
		Medicare:  w.Medicare,
		StudyLoan: w.StudyLoan,
		Withheld:  w.Total,
		Net:       w.Net.Add(postTax),
		Source:    w.Source,
	}, nil
}
