/*
Package period implements the pay-period tax orchestrator: aggregating a
period's shifts and extras, invoking the withholding calculator, and
persisting the resulting totals behind an application-level lock.

KEY CONCEPTS IN THIS FILE (types.go):
  - PayPeriod: Start/end dates, status, aggregate totals
  - Status:    open -> processed -> verified; verified locks the period
  - Extra:     A one-off amount inside the period, taxed when flagged
  - TaxProfile: The payee's standing withholding settings
*/
package period

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/tax"
)

type ID string

// Status is the period lifecycle state. A verified period is locked
// against recalculation and extra mutation until explicitly reopened.
type Status string

const (
	StatusOpen      Status = "open"
	StatusProcessed Status = "processed"
	StatusVerified  Status = "verified"
)

// Type determines how many periods make up a tax year.
type Type string

const (
	TypeWeekly      Type = "weekly"
	TypeFortnightly Type = "fortnightly"
	TypeMonthly     Type = "monthly"
)

// PeriodsPerYear maps the period type to its annualization factor.
func (t Type) PeriodsPerYear() int {
	switch t {
	case TypeWeekly:
		return 52
	case TypeFortnightly:
		return 26
	case TypeMonthly:
		return 12
	default:
		return 0
	}
}

// Extra is a one-off amount attached to a period. Taxable extras join the
// gross before withholding; non-taxable extras are added to net afterwards.
type Extra struct {
	ID      string
	Name    string
	Amount  decimal.Decimal
	Taxable bool
}

// Totals are the period's derived aggregate figures.
type Totals struct {
	Gross     decimal.Decimal
	IncomeTax decimal.Decimal
	Medicare  decimal.Decimal
	StudyLoan decimal.Decimal
	Withheld  decimal.Decimal
	Net       decimal.Decimal

	// Source reports whether the coefficient tables behind these figures
	// were live or the embedded fallback.
	Source tax.Source
}

// PayPeriod is one pay cycle covering shifts starting in [Start, End).
// Totals are derived, never hand-edited.
type PayPeriod struct {
	ID     ID
	Start  time.Time
	End    time.Time
	Type   Type
	Status Status
	Extras []Extra
	Totals Totals

	// TaxYear the period's withholding is computed under.
	TaxYear tax.Year
}

// Locked reports whether the period rejects mutation.
func (p *PayPeriod) Locked() bool { return p.Status == StatusVerified }

// TaxProfile is the single user's standing withholding settings.
type TaxProfile struct {
	ClaimsTaxFreeThreshold bool
	ForeignResident        bool
	MedicareExemption      tax.MedicareExemption
	HasStudyLoan           bool
	ExtraWithholding       decimal.Decimal
}
