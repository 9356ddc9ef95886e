/*
withholding.go - The progressive withholding calculator

PURPOSE:
  Applies the ATO coefficient formula to a period's gross pay:

    1. annualize:   annual = gross * periodsPerYear
    2. bracket:     pick the [from, to) coefficient row for the scale
    3. formula:     annualTax = A * annual - B
    4. de-annualize periodTax = round(annualTax / periodsPerYear)

  Medicare shades in between the low and high thresholds (10c per dollar
  over the low threshold) and applies the full rate above; exemption flags
  halve or zero it. HECS/STSL uses its own bracket table, rate * income.

  Every component is rounded to cents independently; the total is the sum
  of the rounded components, so net + total withholding == gross exactly.
*/
package tax

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// MedicareExemption is the payee's Medicare levy exemption claim.
type MedicareExemption int

const (
	ExemptionNone MedicareExemption = iota
	ExemptionHalf
	ExemptionFull
)

// Input describes one pay period's withholding request.
type Input struct {
	Gross          decimal.Decimal
	PeriodsPerYear int // 52, 26 or 12
	Year           Year

	ClaimsTaxFreeThreshold bool
	ForeignResident        bool
	MedicareExemption      MedicareExemption
	HasStudyLoan           bool

	// ExtraWithholding is additional voluntary withholding per period.
	ExtraWithholding decimal.Decimal
}

// Scale resolves the withholding schedule from the claim flags. Foreign
// residency dominates.
func (in Input) ScaleFor() Scale {
	switch {
	case in.ForeignResident:
		return ScaleForeign
	case in.ClaimsTaxFreeThreshold:
		return ScaleTaxFree
	default:
		return ScaleNoTaxFree
	}
}

// Withholding is the per-period breakdown.
type Withholding struct {
	Gross     decimal.Decimal
	IncomeTax decimal.Decimal
	Medicare  decimal.Decimal
	StudyLoan decimal.Decimal
	Extra     decimal.Decimal
	Total     decimal.Decimal
	Net       decimal.Decimal

	// Source reports whether the coefficients came from the live store or
	// the embedded fallback tables.
	Source Source
}

// Calculator computes withholding from cached coefficient tables.
type Calculator struct {
	Tables *Cache
}

func NewCalculator(tables *Cache) *Calculator {
	return &Calculator{Tables: tables}
}

// Withhold computes all withholding components for one period.
func (c *Calculator) Withhold(ctx context.Context, in Input) (*Withholding, error) {
	if in.PeriodsPerYear <= 0 {
		return nil, fmt.Errorf("periods per year must be positive, got %d", in.PeriodsPerYear)
	}

	ts, err := c.Tables.Tables(ctx, in.Year)
	if err != nil {
		return nil, err
	}

	periods := decimal.NewFromInt(int64(in.PeriodsPerYear))
	annual := in.Gross.Mul(periods)

	incomeTax, err := incomeTaxFor(ts, in.ScaleFor(), annual, periods)
	if err != nil {
		return nil, err
	}

	medicare := decimal.Zero
	if !in.ForeignResident {
		medicare = medicareFor(ts.Config, in.MedicareExemption, annual, periods)
	}

	studyLoan := decimal.Zero
	if in.HasStudyLoan {
		studyLoan = studyLoanFor(ts, annual, periods)
	}

	extra := in.ExtraWithholding
	if extra.IsNegative() {
		extra = decimal.Zero
	}

	total := incomeTax.Add(medicare).Add(studyLoan).Add(extra)
	return &Withholding{
		Gross:     in.Gross,
		IncomeTax: incomeTax,
		Medicare:  medicare,
		StudyLoan: studyLoan,
		Extra:     extra,
		Total:     total,
		Net:       in.Gross.Sub(total),
		Source:    ts.Source,
	}, nil
}

func incomeTaxFor(ts *TableSet, scale Scale, annual, periods decimal.Decimal) (decimal.Decimal, error) {
	coef := ts.CoefficientFor(scale, annual)
	if coef == nil {
		return decimal.Zero, fmt.Errorf("%w: %s in year %s", ErrNoScale, scale, ts.Year)
	}
	annualTax := coef.A.Mul(annual).Sub(coef.B)
	if annualTax.IsNegative() {
		annualTax = decimal.Zero
	}
	return annualTax.Div(periods).Round(2), nil
}

func medicareFor(cfg RateConfig, exemption MedicareExemption, annual, periods decimal.Decimal) decimal.Decimal {
	if exemption == ExemptionFull {
		return decimal.Zero
	}

	var levy decimal.Decimal
	switch {
	case annual.LessThanOrEqual(cfg.MedicareLowThreshold):
		return decimal.Zero
	case annual.LessThanOrEqual(cfg.MedicareHighThreshold):
		// Shade-in: 10 cents per dollar over the low threshold.
		levy = annual.Sub(cfg.MedicareLowThreshold).Mul(decimal.RequireFromString("0.10"))
	default:
		levy = annual.Mul(cfg.MedicareRate)
	}

	if exemption == ExemptionHalf {
		levy = levy.Div(decimal.NewFromInt(2))
	}
	return levy.Div(periods).Round(2)
}

func studyLoanFor(ts *TableSet, annual, periods decimal.Decimal) decimal.Decimal {
	r := ts.StslRateFor(annual)
	if r == nil || r.Rate.IsZero() {
		return decimal.Zero
	}
	return annual.Mul(r.Rate).Div(periods).Round(2)
}
