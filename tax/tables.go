/*
tables.go - Hardcoded fallback coefficient tables

PURPOSE:
  Versioned, in-binary tables so withholding degrades gracefully when the
  persistence layer cannot be reached. Brackets are expressed in annual
  terms as the piecewise-linear A*x - B form; continuity at each bracket
  boundary keeps withholding monotonic in gross pay.

VERSIONING:
  One entry per supported tax year. Adding a year means adding its tables
  here AND seeding the store; the fallback never substitutes a different
  year's rules for an unknown year.
*/
package tax

import "github.com/shopspring/decimal"

// FallbackVersion identifies the embedded table revision.
const FallbackVersion = "2024-25.1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fallbackTables returns the embedded table sets keyed by year. The
// returned sets are fresh copies tagged SourceFallback.
func fallbackTables() map[Year]*TableSet {
	return map[Year]*TableSet{
		year2024_25: tables2024_25(),
	}
}

const year2024_25 Year = "2024-25"

func tables2024_25() *TableSet {
	y := year2024_25
	return &TableSet{
		Year:   y,
		Source: SourceFallback,
		Coefficients: []Coefficient{
			// Resident, tax-free threshold claimed.
			{Year: y, Scale: ScaleTaxFree, From: d("0"), To: d("18200"), A: d("0"), B: d("0")},
			{Year: y, Scale: ScaleTaxFree, From: d("18200"), To: d("45000"), A: d("0.16"), B: d("2912")},
			{Year: y, Scale: ScaleTaxFree, From: d("45000"), To: d("135000"), A: d("0.30"), B: d("9212")},
			{Year: y, Scale: ScaleTaxFree, From: d("135000"), To: d("190000"), A: d("0.37"), B: d("18662")},
			{Year: y, Scale: ScaleTaxFree, From: d("190000"), To: d("0"), A: d("0.45"), B: d("33862")},

			// Resident, threshold not claimed: same marginal ladder from
			// the first dollar.
			{Year: y, Scale: ScaleNoTaxFree, From: d("0"), To: d("45000"), A: d("0.16"), B: d("0")},
			{Year: y, Scale: ScaleNoTaxFree, From: d("45000"), To: d("135000"), A: d("0.30"), B: d("6300")},
			{Year: y, Scale: ScaleNoTaxFree, From: d("135000"), To: d("190000"), A: d("0.37"), B: d("15750")},
			{Year: y, Scale: ScaleNoTaxFree, From: d("190000"), To: d("0"), A: d("0.45"), B: d("30950")},

			// Foreign resident: no tax-free threshold, no Medicare.
			{Year: y, Scale: ScaleForeign, From: d("0"), To: d("135000"), A: d("0.30"), B: d("0")},
			{Year: y, Scale: ScaleForeign, From: d("135000"), To: d("190000"), A: d("0.37"), B: d("9450")},
			{Year: y, Scale: ScaleForeign, From: d("190000"), To: d("0"), A: d("0.45"), B: d("24650")},
		},
		Stsl: []StslRate{
			{Year: y, From: d("0"), To: d("54435"), Rate: d("0")},
			{Year: y, From: d("54435"), To: d("62851"), Rate: d("0.01")},
			{Year: y, From: d("62851"), To: d("66621"), Rate: d("0.02")},
			{Year: y, From: d("66621"), To: d("70619"), Rate: d("0.025")},
			{Year: y, From: d("70619"), To: d("74856"), Rate: d("0.03")},
			{Year: y, From: d("74856"), To: d("79347"), Rate: d("0.035")},
			{Year: y, From: d("79347"), To: d("84108"), Rate: d("0.04")},
			{Year: y, From: d("84108"), To: d("89155"), Rate: d("0.045")},
			{Year: y, From: d("89155"), To: d("94504"), Rate: d("0.05")},
			{Year: y, From: d("94504"), To: d("100175"), Rate: d("0.055")},
			{Year: y, From: d("100175"), To: d("106186"), Rate: d("0.06")},
			{Year: y, From: d("106186"), To: d("112557"), Rate: d("0.065")},
			{Year: y, From: d("112557"), To: d("119310"), Rate: d("0.07")},
			{Year: y, From: d("119310"), To: d("126468"), Rate: d("0.075")},
			{Year: y, From: d("126468"), To: d("134057"), Rate: d("0.08")},
			{Year: y, From: d("134057"), To: d("142101"), Rate: d("0.085")},
			{Year: y, From: d("142101"), To: d("150627"), Rate: d("0.09")},
			{Year: y, From: d("150627"), To: d("159664"), Rate: d("0.095")},
			{Year: y, From: d("159664"), To: d("0"), Rate: d("0.10")},
		},
		Config: RateConfig{
			Year:                  y,
			MedicareRate:          d("0.02"),
			MedicareLowThreshold:  d("27222"),
			MedicareHighThreshold: d("34027.50"),
		},
	}
}
