/*
Package tax implements Australian statutory withholding: PAYG income tax via
the ATO coefficient formula, the Medicare levy with low-income shading, and
HECS/STSL study-loan repayment.

PURPOSE:
  Given a pay period's gross and the cached coefficient tables for a tax
  year, compute every withholding component exactly to the cent. The
  coefficient tables are loaded per tax year through a TTL cache with a
  hardcoded, versioned fallback (cache.go, tables.go).

KEY CONCEPTS IN THIS FILE (types.go):
  - Year / Scale: Table keys (tax year string, withholding schedule)
  - Coefficient:  One [earningsFrom, earningsTo) bracket with A and B
  - StslRate:     One study-loan repayment bracket
  - RateConfig:   Medicare rate and shading thresholds for a year
  - TableSet:     Everything the calculator needs for one year, tagged
                  with the data source it came from (live vs fallback)
*/
package tax

import (
	"github.com/shopspring/decimal"
)

// Year identifies an Australian tax year, e.g. "2024-25".
type Year string

// Scale is the withholding schedule a payee falls under.
type Scale string

const (
	// ScaleNoTaxFree: tax-free threshold not claimed.
	ScaleNoTaxFree Scale = "no_tax_free_threshold"

	// ScaleTaxFree: resident claiming the tax-free threshold.
	ScaleTaxFree Scale = "tax_free_threshold"

	// ScaleForeign: foreign resident.
	ScaleForeign Scale = "foreign_resident"
)

// Coefficient is one progressive bracket: for annual earnings x in
// [From, To), withholding = A*x - B. A zero To marks the unbounded last
// bracket of a scale.
type Coefficient struct {
	Year  Year
	Scale Scale
	From  decimal.Decimal
	To    decimal.Decimal
	A     decimal.Decimal
	B     decimal.Decimal
}

// Contains reports whether annual earnings fall in this bracket.
func (c Coefficient) Contains(earnings decimal.Decimal) bool {
	if earnings.LessThan(c.From) {
		return false
	}
	return c.To.IsZero() || earnings.LessThan(c.To)
}

// StslRate is one HECS/STSL repayment bracket: annual income in [From, To)
// repays Rate * income. A zero To marks the unbounded last bracket.
type StslRate struct {
	Year Year
	From decimal.Decimal
	To   decimal.Decimal
	Rate decimal.Decimal
}

func (r StslRate) Contains(income decimal.Decimal) bool {
	if income.LessThan(r.From) {
		return false
	}
	return r.To.IsZero() || income.LessThan(r.To)
}

// RateConfig carries a year's Medicare levy parameters. Between the low and
// high thresholds the levy shades in at 10 cents per dollar over the low
// threshold; above the high threshold the full rate applies.
type RateConfig struct {
	Year                  Year
	MedicareRate          decimal.Decimal
	MedicareLowThreshold  decimal.Decimal
	MedicareHighThreshold decimal.Decimal
}

// Source tags where a table set came from.
type Source string

const (
	// SourceLive: loaded from the persistence layer.
	SourceLive Source = "live"

	// SourceFallback: served from the hardcoded versioned tables after a
	// load failure. Surfaced to callers rather than hidden.
	SourceFallback Source = "fallback"
)

// TableSet is everything the withholding calculator needs for one tax year.
type TableSet struct {
	Year         Year
	Source       Source
	Coefficients []Coefficient
	Stsl         []StslRate
	Config       RateConfig
}

// CoefficientFor selects the bracket containing the annual earnings for a
// scale, or nil when the scale has no matching bracket.
func (ts *TableSet) CoefficientFor(scale Scale, earnings decimal.Decimal) *Coefficient {
	for i := range ts.Coefficients {
		c := &ts.Coefficients[i]
		if c.Scale == scale && c.Contains(earnings) {
			return c
		}
	}
	return nil
}

// StslRateFor selects the study-loan bracket containing the annual income,
// or nil below the repayment floor.
func (ts *TableSet) StslRateFor(income decimal.Decimal) *StslRate {
	for i := range ts.Stsl {
		r := &ts.Stsl[i]
		if r.Contains(income) {
			return r
		}
	}
	return nil
}
